package server

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/funvibe/matchkit/internal/evaluator"
)

// Binding is a name bound by the selected arm.
type Binding struct {
	Name  string
	Value evaluator.Object
}

// Step is one inspected arm, as reported when a request asks for an
// explanation.
type Step struct {
	Index   int
	Outcome string
}

// Decision is a decoded ClassifyResponse. ArmIndex is -1 when nothing matched.
type Decision struct {
	Matched    bool
	ArmIndex   int
	Result     evaluator.Object
	Bindings   []Binding
	DecisionID string
	Steps      []Step
}

// Client calls a Classifier service using dynamic messages.
type Client struct {
	conn  grpc.ClientConnInterface
	codec *valueCodec

	classifyIn, classifyOut *desc.MessageDescriptor
	listIn, listOut         *desc.MessageDescriptor
}

// NewClient wraps an existing connection.
func NewClient(conn grpc.ClientConnInterface) (*Client, error) {
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
	c := &Client{conn: conn, codec: codec}
	for _, m := range sd.GetMethods() {
		switch m.GetName() {
		case classifyMethod:
			c.classifyIn, c.classifyOut = m.GetInputType(), m.GetOutputType()
		case listRuleSetsMethod:
			c.listIn, c.listOut = m.GetInputType(), m.GetOutputType()
		}
	}
	if c.classifyIn == nil || c.listIn == nil {
		return nil, fmt.Errorf("service %s is missing methods", ServiceName)
	}
	return c, nil
}

// Dial connects to target without TLS. The caller closes the returned
// connection.
func Dial(target string) (*Client, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	c, err := NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return c, conn, nil
}

// Classify asks the server to classify v with the named rule set.
func (c *Client) Classify(ctx context.Context, ruleSet string, v evaluator.Object, explain bool) (*Decision, error) {
	req := dynamic.NewMessage(c.classifyIn)
	vm, err := c.codec.toMessage(v)
	if err != nil {
		return nil, err
	}
	req.SetFieldByName("rule_set", ruleSet)
	req.SetFieldByName("value", vm)
	req.SetFieldByName("explain", explain)

	resp := dynamic.NewMessage(c.classifyOut)
	if err := c.conn.Invoke(ctx, methodPath(classifyMethod), req, resp); err != nil {
		return nil, err
	}
	return c.decodeDecision(resp)
}

func (c *Client) decodeDecision(resp *dynamic.Message) (*Decision, error) {
	d := &Decision{}
	d.Matched, _ = resp.GetFieldByName("matched").(bool)
	idx, _ := resp.GetFieldByName("arm_index").(int32)
	d.ArmIndex = int(idx)
	d.DecisionID, _ = resp.GetFieldByName("decision_id").(string)

	if d.Matched {
		rm, _ := resp.GetFieldByName("result").(*dynamic.Message)
		result, err := c.codec.toObject(rm, nil)
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		d.Result = result
	}

	bindings, _ := resp.GetFieldByName("bindings").([]interface{})
	for _, b := range bindings {
		bm, ok := b.(*dynamic.Message)
		if !ok {
			continue
		}
		name, _ := bm.GetFieldByName("name").(string)
		vm, _ := bm.GetFieldByName("value").(*dynamic.Message)
		val, err := c.codec.toObject(vm, nil)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		d.Bindings = append(d.Bindings, Binding{Name: name, Value: val})
	}

	steps, _ := resp.GetFieldByName("steps").([]interface{})
	for _, st := range steps {
		sm, ok := st.(*dynamic.Message)
		if !ok {
			continue
		}
		i, _ := sm.GetFieldByName("index").(int32)
		outcome, _ := sm.GetFieldByName("outcome").(string)
		d.Steps = append(d.Steps, Step{Index: int(i), Outcome: outcome})
	}
	return d, nil
}

// ListRuleSets returns the names of the rule sets the server has loaded.
func (c *Client) ListRuleSets(ctx context.Context) ([]string, error) {
	req := dynamic.NewMessage(c.listIn)
	resp := dynamic.NewMessage(c.listOut)
	if err := c.conn.Invoke(ctx, methodPath(listRuleSetsMethod), req, resp); err != nil {
		return nil, err
	}
	raw, _ := resp.GetFieldByName("names").([]interface{})
	names := make([]string, 0, len(raw))
	for _, n := range raw {
		if s, ok := n.(string); ok {
			names = append(names, s)
		}
	}
	return names, nil
}
