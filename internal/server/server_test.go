package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/jhump/protoreflect/dynamic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/funvibe/matchkit/internal/audit"
	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/rules"
)

const serviceYAML = `
types:
  - name: Shape
  - name: Circle
    parents: [Shape]
rulesets:
  - name: classify
    arms:
      - pattern: {rel: "<", value: 0}
        result: negative
      - pattern: {and: [{rel: ">=", value: 0}, {rel: "<", value: 10}]}
        result: small non-negative
      - pattern: _
        result: big
  - name: typecheck
    arms:
      - pattern: {type: String, bind: s}
        when: {op: "==", left: {call: len, args: [{ref: s}]}, right: 0}
        result: empty string
      - pattern: {type: Circle, bind: c}
        when: {op: ">", left: {field: radius, of: {ref: c}}, right: 10}
        result: {op: "+", left: "large ", right: {call: typeOf, args: [{ref: c}]}}
      - pattern: discard
        result: other
  - name: positive
    arms:
      - pattern: {rel: ">", value: 0}
        result: is positive
  - name: divide
    arms:
      - pattern: {type: Int, bind: n}
        result: {op: "/", left: 100, right: {ref: n}}
`

type fixture struct {
	client   *Client
	registry *rules.Registry
	metrics  *Metrics
	gather   *prometheus.Registry
}

func compile(t *testing.T, doc string) *rules.RuleBook {
	t.Helper()
	f, err := rules.Parse([]byte(doc), "service.yaml")
	require.NoError(t, err)
	book, err := rules.Compile(f, "service.yaml")
	require.NoError(t, err)
	return book
}

func startServer(t *testing.T, reg *rules.Registry, store *audit.Store) *fixture {
	t.Helper()
	gather := prometheus.NewRegistry()
	metrics := NewMetrics(gather)

	srv, err := New(Options{Registry: reg, Audit: store, Metrics: metrics})
	require.NoError(t, err)
	gs := NewGRPCServer(nil)
	srv.Register(gs)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, gs, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	client, err := NewClient(conn)
	require.NoError(t, err)
	return &fixture{client: client, registry: reg, metrics: metrics, gather: gather}
}

func startDefault(t *testing.T) *fixture {
	t.Helper()
	return startServer(t, rules.NewStaticRegistry(compile(t, serviceYAML), nil), nil)
}

func circle(radius int64) evaluator.Object {
	return evaluator.NewInstance("Circle", map[string]evaluator.Object{
		"radius": &evaluator.Integer{Value: radius},
	})
}

func TestClassify(t *testing.T) {
	f := startDefault(t)
	ctx := context.Background()

	d, err := f.client.Classify(ctx, "classify", &evaluator.Integer{Value: 5}, false)
	require.NoError(t, err)
	assert.True(t, d.Matched)
	assert.Equal(t, 1, d.ArmIndex)
	assert.Equal(t, "small non-negative", evaluator.Show(d.Result))
	assert.Empty(t, d.Steps, "steps are only sent when asked for")
	assert.Empty(t, d.DecisionID, "no audit store configured")

	d, err = f.client.Classify(ctx, "typecheck", &evaluator.String{Value: ""}, false)
	require.NoError(t, err)
	assert.Equal(t, "empty string", evaluator.Show(d.Result))
	require.Len(t, d.Bindings, 1)
	assert.Equal(t, "s", d.Bindings[0].Name)
	assert.True(t, evaluator.ObjectsEqual(&evaluator.String{Value: ""}, d.Bindings[0].Value),
		"empty string binding should survive the wire, got %s", d.Bindings[0].Value.Inspect())

	d, err = f.client.Classify(ctx, "typecheck", circle(11), false)
	require.NoError(t, err)
	assert.Equal(t, "large Circle", evaluator.Show(d.Result))
	require.Len(t, d.Bindings, 1)
	assert.True(t, evaluator.ObjectsEqual(circle(11), d.Bindings[0].Value))

	d, err = f.client.Classify(ctx, "typecheck", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "other", evaluator.Show(d.Result))
}

func TestClassifyNoMatch(t *testing.T) {
	f := startDefault(t)

	d, err := f.client.Classify(context.Background(), "positive", &evaluator.Integer{Value: -1}, false)
	require.NoError(t, err)
	assert.False(t, d.Matched)
	assert.Equal(t, -1, d.ArmIndex)
	assert.Nil(t, d.Result)
	assert.Empty(t, d.Bindings)
}

func TestClassifyErrors(t *testing.T) {
	f := startDefault(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		set   string
		value evaluator.Object
		code  codes.Code
	}{
		{"unknown rule set", "missing", &evaluator.Integer{Value: 1}, codes.NotFound},
		{"runtime fault", "divide", &evaluator.Integer{Value: 0}, codes.FailedPrecondition},
		{"undeclared type", "typecheck", evaluator.NewInstance("Square", nil), codes.InvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.client.Classify(ctx, tc.set, tc.value, false)
			require.Error(t, err)
			assert.Equal(t, tc.code, status.Code(err), "got %v", err)
		})
	}
}

func TestUnavailableBeforeLoad(t *testing.T) {
	reg := rules.NewRegistry(filepath.Join(t.TempDir(), "rules.yaml"), nil)
	f := startServer(t, reg, nil)

	_, err := f.client.Classify(context.Background(), "classify", &evaluator.Integer{Value: 1}, false)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	_, err = f.client.ListRuleSets(context.Background())
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestClassifyExplain(t *testing.T) {
	f := startDefault(t)

	d, err := f.client.Classify(context.Background(), "typecheck", circle(3), true)
	require.NoError(t, err)
	assert.Equal(t, 2, d.ArmIndex)
	assert.Equal(t, []Step{
		{Index: 0, Outcome: "not-matched"},
		{Index: 1, Outcome: "guard-rejected"},
		{Index: 2, Outcome: "selected"},
	}, d.Steps)

	d, err = f.client.Classify(context.Background(), "classify", &evaluator.String{Value: "x"}, true)
	require.NoError(t, err)
	assert.Equal(t, []Step{
		{Index: 0, Outcome: "type-mismatch"},
		{Index: 1, Outcome: "type-mismatch"},
		{Index: 2, Outcome: "selected"},
	}, d.Steps)
}

func TestListRuleSetsFollowsRegistry(t *testing.T) {
	f := startDefault(t)
	ctx := context.Background()

	names, err := f.client.ListRuleSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"classify", "divide", "positive", "typecheck"}, names)

	f.registry.Swap(compile(t, "rulesets: [{name: only, arms: [{pattern: _, result: x}]}]"))
	names, err = f.client.ListRuleSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, names)

	_, err = f.client.Classify(ctx, "classify", &evaluator.Integer{Value: 1}, false)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestClassifyRecordsDecision(t *testing.T) {
	ctx := context.Background()
	store, err := audit.Open(ctx, filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := startServer(t, rules.NewStaticRegistry(compile(t, serviceYAML), nil), store)

	d, err := f.client.Classify(ctx, "classify", &evaluator.Integer{Value: 42}, false)
	require.NoError(t, err)
	require.NotEmpty(t, d.DecisionID)

	miss, err := f.client.Classify(ctx, "positive", &evaluator.Integer{Value: 0}, false)
	require.NoError(t, err)
	require.NotEmpty(t, miss.DecisionID)

	recs, err := store.Recent(ctx, "classify", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, d.DecisionID, recs[0].ID)
	assert.Equal(t, "42", recs[0].Input)
	assert.Equal(t, 2, recs[0].ArmIndex)
	assert.Equal(t, `"big"`, recs[0].Result)

	recs, err = store.Recent(ctx, "positive", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Matched)
	assert.Equal(t, -1, recs[0].ArmIndex)
}

func TestMetrics(t *testing.T) {
	f := startDefault(t)
	ctx := context.Background()

	for _, n := range []int64{-1, 3, 50} {
		_, err := f.client.Classify(ctx, "classify", &evaluator.Integer{Value: n}, false)
		require.NoError(t, err)
	}
	_, err := f.client.Classify(ctx, "positive", &evaluator.Integer{Value: -5}, false)
	require.NoError(t, err)
	_, err = f.client.Classify(ctx, "divide", &evaluator.Integer{Value: 0}, false)
	require.Error(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.Classifications.WithLabelValues("classify", OutcomeMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Classifications.WithLabelValues("positive", OutcomeNoMatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Classifications.WithLabelValues("divide", OutcomeEvalError)))
	assert.Equal(t, 3, testutil.CollectAndCount(f.metrics.Duration))
	n, err := testutil.GatherAndCount(f.gather, "matchkit_classifications_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "one series per rule set and outcome")

	f.metrics.ObserveReload(nil)
	f.metrics.ObserveReload(assert.AnError)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reloads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reloads.WithLabelValues("error")))
}

func TestValueCodecKeepsZeroValues(t *testing.T) {
	fd, err := descriptors()
	require.NoError(t, err)
	codec, err := newValueCodec(fd)
	require.NoError(t, err)

	values := []evaluator.Object{
		&evaluator.Integer{Value: 0},
		&evaluator.String{Value: ""},
		evaluator.FALSE,
		evaluator.NULL,
		evaluator.NewInstance("Box", map[string]evaluator.Object{
			"inner": evaluator.NewInstance("Box", nil),
			"size":  &evaluator.Integer{Value: 0},
		}),
	}
	for _, v := range values {
		msg, err := codec.toMessage(v)
		require.NoError(t, err)
		data, err := msg.Marshal()
		require.NoError(t, err)

		decoded := dynamic.NewMessage(codec.value)
		require.NoError(t, decoded.Unmarshal(data))
		got, err := codec.toObject(decoded, nil)
		require.NoError(t, err)
		assert.True(t, evaluator.ObjectsEqual(v, got), "want %s, got %s", v.Inspect(), got.Inspect())
	}
}
