// Package server exposes rule sets over gRPC.
//
// The service is described by an embedded .proto file that is parsed at
// start-up; requests and responses are dynamic messages, so there is no
// generated code to keep in sync with the schema.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/funvibe/matchkit/internal/audit"
	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/rules"
)

// Options configures a Server. Registry is required; the rest are optional.
type Options struct {
	Registry *rules.Registry
	Audit    *audit.Store
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Server implements matchkit.v1.Classifier.
//
// Thread Safety: safe for concurrent use. Each request reads the current
// RuleBook once, so a reload never splits a request across two books.
type Server struct {
	registry *rules.Registry
	audit    *audit.Store
	metrics  *Metrics
	logger   *slog.Logger

	service *desc.ServiceDescriptor
	codec   *valueCodec
	binding *desc.MessageDescriptor
	step    *desc.MessageDescriptor
}

// New builds a Server from the embedded service definition.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("server: registry is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fd, err := descriptors()
	if err != nil {
		return nil, err
	}
	sd, err := findService(fd)
	if err != nil {
		return nil, err
	}
	codec, err := newValueCodec(fd)
	if err != nil {
		return nil, err
	}
	binding, err := findMessage(fd, "Binding")
	if err != nil {
		return nil, err
	}
	step, err := findMessage(fd, "Step")
	if err != nil {
		return nil, err
	}

	return &Server{
		registry: opts.Registry,
		audit:    opts.Audit,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		service:  sd,
		codec:    codec,
		binding:  binding,
		step:     step,
	}, nil
}

// Register adds the Classifier service to gs.
func (s *Server) Register(gs *grpc.Server) {
	sd := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    s.service.GetFile().GetName(),
	}

	for _, method := range s.service.GetMethods() {
		if method.IsClientStreaming() || method.IsServerStreaming() {
			continue
		}
		md := method
		sd.Methods = append(sd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := dynamic.NewMessage(md.GetInputType())
				if err := dec(in); err != nil {
					return nil, err
				}
				h := srv.(*Server)
				if interceptor == nil {
					return h.dispatch(ctx, md, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPath(md.GetName())}
				return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
					return h.dispatch(ctx, md, req.(*dynamic.Message))
				})
			},
		})
	}

	gs.RegisterService(sd, s)
}

func (s *Server) dispatch(ctx context.Context, md *desc.MethodDescriptor, in *dynamic.Message) (interface{}, error) {
	out := dynamic.NewMessage(md.GetOutputType())
	var err error
	switch md.GetName() {
	case classifyMethod:
		err = s.classify(ctx, in, out)
	case listRuleSetsMethod:
		err = s.listRuleSets(out)
	default:
		err = status.Errorf(codes.Unimplemented, "method %s not implemented", md.GetName())
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) classify(ctx context.Context, in, out *dynamic.Message) error {
	book := s.registry.Book()
	if book == nil {
		return status.Error(codes.Unavailable, "no rules loaded")
	}

	ruleSet, _ := in.GetFieldByName("rule_set").(string)
	explain, _ := in.GetFieldByName("explain").(bool)
	vm, _ := in.GetFieldByName("value").(*dynamic.Message)

	value, err := s.codec.toObject(vm, book.Types())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "value: %v", err)
	}

	var steps []evaluator.Step
	var trace evaluator.Tracer
	if explain {
		trace = func(st evaluator.Step) { steps = append(steps, st) }
	}

	start := time.Now()
	sel, err := book.ClassifyTrace(ruleSet, value, trace)
	elapsed := time.Since(start)

	var unknown *rules.UnknownRuleSetError
	var noMatch *evaluator.NoMatchError
	var evalErr *evaluator.EvalError
	switch {
	case errors.As(err, &unknown):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &evalErr):
		s.metrics.observe(ruleSet, OutcomeEvalError, elapsed)
		s.logger.Warn("Classification failed",
			"rule_set", ruleSet,
			"value", value.Inspect(),
			"error", err)
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &noMatch):
		s.metrics.observe(ruleSet, OutcomeNoMatch, elapsed)
	case err != nil:
		return status.Error(codes.Internal, err.Error())
	default:
		s.metrics.observe(ruleSet, OutcomeMatched, elapsed)
	}

	if err := s.fillResponse(out, sel, steps); err != nil {
		return status.Error(codes.Internal, err.Error())
	}

	s.logger.Debug("Classified",
		"rule_set", ruleSet,
		"value", value.Inspect(),
		"matched", sel != nil,
		"elapsed", elapsed)

	if s.audit != nil {
		rec := audit.Record{RuleSet: ruleSet, Input: value.Inspect(), Matched: sel != nil}
		if sel != nil {
			rec.ArmIndex = sel.Index
			rec.Result = sel.Result.Inspect()
		}
		stored, err := s.audit.Append(ctx, rec)
		if err != nil {
			s.logger.Warn("Failed to record decision", "rule_set", ruleSet, "error", err)
		} else {
			out.SetFieldByName("decision_id", stored.ID)
		}
	}
	return nil
}

// fillResponse writes a selection into a ClassifyResponse; sel is nil when no
// arm matched.
func (s *Server) fillResponse(out *dynamic.Message, sel *evaluator.Selection, steps []evaluator.Step) error {
	for _, st := range steps {
		sm := dynamic.NewMessage(s.step)
		sm.SetFieldByName("index", int32(st.Index))
		sm.SetFieldByName("outcome", st.Outcome.String())
		if err := out.TryAddRepeatedFieldByName("steps", sm); err != nil {
			return err
		}
	}

	if sel == nil {
		out.SetFieldByName("matched", false)
		out.SetFieldByName("arm_index", int32(-1))
		return nil
	}

	out.SetFieldByName("matched", true)
	out.SetFieldByName("arm_index", int32(sel.Index))
	result, err := s.codec.toMessage(sel.Result)
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}
	out.SetFieldByName("result", result)

	names := make([]string, 0, len(sel.Bindings))
	for name := range sel.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		vm, err := s.codec.toMessage(sel.Bindings[name])
		if err != nil {
			return fmt.Errorf("binding %s: %w", name, err)
		}
		bm := dynamic.NewMessage(s.binding)
		bm.SetFieldByName("name", name)
		bm.SetFieldByName("value", vm)
		if err := out.TryAddRepeatedFieldByName("bindings", bm); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) listRuleSets(out *dynamic.Message) error {
	book := s.registry.Book()
	if book == nil {
		return status.Error(codes.Unavailable, "no rules loaded")
	}
	for _, name := range book.Names() {
		if err := out.TryAddRepeatedFieldByName("names", name); err != nil {
			return status.Error(codes.Internal, err.Error())
		}
	}
	return nil
}

// LoggingInterceptor logs each unary call with its status code and latency.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelDebug
		if code != codes.OK && code != codes.NotFound {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "gRPC call",
			"method", info.FullMethod,
			"code", code.String(),
			"elapsed", time.Since(start))
		return resp, err
	}
}

// NewGRPCServer returns a grpc.Server with request logging installed.
func NewGRPCServer(logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(LoggingInterceptor(logger))}, opts...)
	return grpc.NewServer(opts...)
}

// Serve runs gs on lis until ctx is cancelled, then stops gracefully.
func Serve(ctx context.Context, gs *grpc.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- gs.Serve(lis) }()

	select {
	case <-ctx.Done():
		gs.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
