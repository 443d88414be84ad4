package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-confres/coerce"
	"github.com/KOMKZ/go-yogan-confres/errcode"
	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/logger"
	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/KOMKZ/go-yogan-confres/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// kv one entry of a fake source, kept in stream order
type kv struct {
	key   string
	value any
}

// fakeParser serves in-memory sources
type fakeParser map[source.SourceID][]kv

func (f fakeParser) Parse(ctx context.Context, id source.SourceID) iter.Seq2[property.RawProperty, error] {
	return func(yield func(property.RawProperty, error) bool) {
		for _, e := range f[id] {
			if !yield(property.NewRawProperty(string(id), e.key, e.value), nil) {
				return
			}
		}
	}
}

// countingValidator records every property handed to the validator
type countingValidator struct {
	inner coerce.Validator
	calls atomic.Int64
}

func newCountingValidator() *countingValidator {
	return &countingValidator{inner: coerce.NewCaster()}
}

func (c *countingValidator) Validate(raw property.RawProperty, target reflect.Type) (property.ValidatedProperty, error) {
	c.calls.Add(1)
	return c.inner.Validate(raw, target)
}

func appMembers(t *testing.T) *property.MemberSet {
	t.Helper()
	set, err := property.NewMemberSet(
		property.MemberDescriptor{Name: "myapp.app.timeout", Type: reflect.TypeOf(0)},
		property.MemberDescriptor{Name: "myapp.app.port", Type: reflect.TypeOf(0)},
		property.MemberDescriptor{Name: "myapp.app.name", Type: reflect.TypeOf("")},
	)
	require.NoError(t, err)
	return set
}

func newPipeline(t *testing.T, parser source.Parser, opts ...Option) (*Pipeline, *logger.TestCtxLogger) {
	t.Helper()
	testLogger := logger.NewTestCtxLogger()
	opts = append([]Option{WithLogger(testLogger.Logger())}, opts...)
	p, err := New(parser, opts...)
	require.NoError(t, err)
	return p, testLogger
}

func TestNew_NilParser(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestResolve_LaterSourceWins(t *testing.T) {
	parser := fakeParser{
		"mem:base":     {{"app.timeout", "30"}},
		"mem:override": {{"app.timeout", "60"}},
	}
	p, testLogger := newPipeline(t, parser)

	resolved, err := p.Resolve(context.Background(), []source.SourceID{"mem:base", "mem:override"}, appMembers(t))
	require.NoError(t, err)

	got, ok := resolved.Get("timeout")
	require.True(t, ok)
	assert.Equal(t, 60, got.Coerced)
	assert.Equal(t, "mem:override", got.Source)
	assert.Equal(t, 1, resolved.Len())
	assert.True(t, testLogger.HasLogWithField("DEBUG", "Property overridden", "source", "mem:override"))
}

func TestResolve_OrderPermutations(t *testing.T) {
	parser := fakeParser{
		"mem:a": {{"app.timeout", 1}},
		"mem:b": {{"timeout", 2}},
		"mem:c": {{"myapp.app.timeout", 3}},
	}
	want := map[source.SourceID]int{"mem:a": 1, "mem:b": 2, "mem:c": 3}

	permutations := [][]source.SourceID{
		{"mem:a", "mem:b", "mem:c"},
		{"mem:a", "mem:c", "mem:b"},
		{"mem:b", "mem:a", "mem:c"},
		{"mem:b", "mem:c", "mem:a"},
		{"mem:c", "mem:a", "mem:b"},
		{"mem:c", "mem:b", "mem:a"},
	}

	p, _ := newPipeline(t, parser)
	for _, order := range permutations {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			resolved, err := p.Resolve(context.Background(), order, appMembers(t))
			require.NoError(t, err)

			got, _ := resolved.Get("timeout")
			last := order[len(order)-1]
			assert.Equal(t, want[last], got.Coerced)
			assert.Equal(t, string(last), got.Source)
		})
	}
}

func TestResolve_LastInStreamWins(t *testing.T) {
	parser := fakeParser{"mem:a": {{"app.port", "1"}, {"port", "2"}, {"myapp.app.port", "3"}}}
	p, _ := newPipeline(t, parser)

	resolved, err := p.Resolve(context.Background(), []source.SourceID{"mem:a"}, appMembers(t))
	require.NoError(t, err)
	got, _ := resolved.Get("port")
	assert.Equal(t, 3, got.Coerced)
}

func TestResolve_DropsUnmatched(t *testing.T) {
	parser := fakeParser{"mem:a": {
		{"app.port", "8080"},
		{"app.unused", "x"},
		{"pp.timeout", "5"},       // substring, not a dotted suffix
		{"other.app.port", "1"},   // longer than the member name
		{"myapp.app.name", "svc"}, // exact
	}}
	validator := newCountingValidator()
	p, testLogger := newPipeline(t, parser, WithValidator(validator))

	resolved, err := p.Resolve(context.Background(), []source.SourceID{"mem:a"}, appMembers(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "port"}, resolved.Keys())
	port, _ := resolved.Get("port")
	assert.Equal(t, 8080, port.Coerced)
	assert.False(t, resolved.Has("unused"))
	assert.False(t, resolved.Has("timeout"))

	// unmatched properties never reach the validator
	assert.Equal(t, int64(2), validator.calls.Load())
	assert.True(t, testLogger.HasLogWithField("DEBUG", "Property dropped", "key", "app.unused"))
	assert.Equal(t, 3, countMsg(testLogger, "Property dropped"))
}

func countMsg(l *logger.TestCtxLogger, msg string) int {
	n := 0
	for _, e := range l.Logs() {
		if e.Message == msg {
			n++
		}
	}
	return n
}

func TestResolve_ValidationFailureAbortsRequest(t *testing.T) {
	parser := fakeParser{
		"mem:base": {{"app.timeout", "30"}},
		"mem:bad":  {{"app.port", "notanumber"}},
		"mem:late": {{"app.name", "never-read"}},
	}
	validator := newCountingValidator()
	p, testLogger := newPipeline(t, parser, WithValidator(validator))

	resolved, err := p.Resolve(context.Background(), []source.SourceID{"mem:base", "mem:bad", "mem:late"}, appMembers(t))
	require.Error(t, err)
	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, errdef.ErrValidation)
	assert.Equal(t, int64(2), validator.calls.Load())

	var layered *errcode.LayeredError
	require.ErrorAs(t, err, &layered)
	assert.Equal(t, "mem:bad", layered.Data()["source"])
	assert.Equal(t, "app.port", layered.Data()["key"])
	assert.True(t, testLogger.HasLog("ERROR", "Property resolution failed"))
}

func TestResolve_ForeignValidatorErrorIsValidation(t *testing.T) {
	parser := fakeParser{"mem:a": {{"app.port", "1"}}}
	failing := coerce.ValidatorFunc(func(raw property.RawProperty, target reflect.Type) (property.ValidatedProperty, error) {
		return property.ValidatedProperty{}, errors.New("out of range")
	})
	p, _ := newPipeline(t, parser, WithValidator(failing))

	_, err := p.Resolve(context.Background(), []source.SourceID{"mem:a"}, appMembers(t))
	assert.ErrorIs(t, err, errdef.ErrValidation)
	assert.Contains(t, err.Error(), "out of range")
}

func TestResolve_NoSources(t *testing.T) {
	p, _ := newPipeline(t, fakeParser{})

	resolved, err := p.Resolve(context.Background(), nil, appMembers(t))
	require.NoError(t, err)
	assert.Equal(t, 0, resolved.Len())
}

func TestResolve_NoMembers(t *testing.T) {
	parser := fakeParser{"mem:a": {{"app.port", "1"}}}
	p, _ := newPipeline(t, parser)

	empty, err := property.NewMemberSet()
	require.NoError(t, err)
	resolved, err := p.Resolve(context.Background(), []source.SourceID{"mem:a"}, empty)
	require.NoError(t, err)
	assert.Equal(t, 0, resolved.Len())
}

func TestResolve_ParseError(t *testing.T) {
	t.Run("parser error kept", func(t *testing.T) {
		p, _ := newPipeline(t, source.NewMux())
		_, err := p.Resolve(context.Background(), []source.SourceID{"ftp:nowhere"}, appMembers(t))
		assert.ErrorIs(t, err, errdef.ErrParse)
	})

	t.Run("plain error wrapped", func(t *testing.T) {
		boom := errors.New("disk on fire")
		parser := source.ParserFunc(func(ctx context.Context, id source.SourceID) iter.Seq2[property.RawProperty, error] {
			return func(yield func(property.RawProperty, error) bool) {
				if !yield(property.NewRawProperty(string(id), "app.port", 1), nil) {
					return
				}
				yield(property.RawProperty{}, boom)
			}
		})
		p, _ := newPipeline(t, parser)

		resolved, err := p.Resolve(context.Background(), []source.SourceID{"mem:a"}, appMembers(t))
		assert.Nil(t, resolved)
		assert.ErrorIs(t, err, errdef.ErrParse)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "mem:a")
	})
}

func TestResolve_Cancelled(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		p, _ := newPipeline(t, fakeParser{"mem:a": {{"app.port", "1"}}})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.Resolve(ctx, []source.SourceID{"mem:a"}, appMembers(t))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("mid stream", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var yielded int
		parser := source.ParserFunc(func(_ context.Context, id source.SourceID) iter.Seq2[property.RawProperty, error] {
			return func(yield func(property.RawProperty, error) bool) {
				for i := 0; i < 10; i++ {
					yielded++
					if i == 1 {
						cancel()
					}
					if !yield(property.NewRawProperty(string(id), "app.port", i), nil) {
						return
					}
				}
			}
		})
		p, _ := newPipeline(t, parser)

		resolved, err := p.Resolve(ctx, []source.SourceID{"mem:a", "mem:b"}, appMembers(t))
		assert.Nil(t, resolved)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, yielded)
	})
}

func TestResolve_ParallelValidationKeepsOrder(t *testing.T) {
	var entries []kv
	for i := 1; i <= 200; i++ {
		entries = append(entries, kv{"app.timeout", i})
		entries = append(entries, kv{"app.port", fmt.Sprint(1000 + i)})
	}
	parser := fakeParser{"mem:a": entries}

	// slow validation of early items must not let them win
	slow := coerce.ValidatorFunc(func(raw property.RawProperty, target reflect.Type) (property.ValidatedProperty, error) {
		if n, ok := raw.Value.(int); ok && n < 10 {
			time.Sleep(2 * time.Millisecond)
		}
		return coerce.NewCaster().Validate(raw, target)
	})
	p, _ := newPipeline(t, parser, WithValidator(slow), WithValidationWorkers(8))

	resolved, err := p.Resolve(context.Background(), []source.SourceID{"mem:a"}, appMembers(t))
	require.NoError(t, err)

	timeout, _ := resolved.Get("timeout")
	port, _ := resolved.Get("port")
	assert.Equal(t, 200, timeout.Coerced)
	assert.Equal(t, 1200, port.Coerced)
}

func TestResolve_ParallelValidationFirstErrorInOrder(t *testing.T) {
	parser := fakeParser{"mem:a": {
		{"app.timeout", "1"},
		{"app.port", "first-bad"},
		{"app.timeout", "second-bad"},
		{"app.name", "ok"},
	}}
	p, _ := newPipeline(t, parser, WithValidationWorkers(4))

	resolved, err := p.Resolve(context.Background(), []source.SourceID{"mem:a"}, appMembers(t))
	assert.Nil(t, resolved)
	require.ErrorIs(t, err, errdef.ErrValidation)

	var layered *errcode.LayeredError
	require.ErrorAs(t, err, &layered)
	assert.Equal(t, "first-bad", layered.Data()["value"])
}

func TestResolve_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	parser := fakeParser{
		"mem:a": {{"app.port", "1"}, {"app.unused", "x"}},
		"mem:b": {{"app.port", "2"}},
	}
	p, _ := newPipeline(t, parser, WithTracerProvider(tp))

	_, err := p.Resolve(context.Background(), []source.SourceID{"mem:a", "mem:b"}, appMembers(t))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "confres.source", spans[0].Name())
	assert.Equal(t, "confres.source", spans[1].Name())
	assert.Equal(t, "confres.resolve", spans[2].Name())
	assert.Equal(t, spans[2].SpanContext().SpanID(), spans[0].Parent().SpanID())

	attrs := map[string]any{}
	for _, a := range spans[0].Attributes() {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}
	assert.Equal(t, "mem:a", attrs["confres.source"])
	assert.Equal(t, int64(2), attrs["confres.read"])
	assert.Equal(t, int64(1), attrs["confres.dropped"])
}

func TestResolve_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	parser := fakeParser{
		"mem:a": {{"app.port", "1"}, {"app.unused", "x"}, {"app.other", "y"}},
		"mem:b": {{"app.port", "2"}},
	}
	p, _ := newPipeline(t, parser, WithMeterProvider(mp))

	_, err := p.Resolve(context.Background(), []source.SourceID{"mem:a", "mem:b"}, appMembers(t))
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["confres_sources_total"])
	assert.Equal(t, int64(2), sums["confres_properties_resolved_total"])
	assert.Equal(t, int64(2), sums["confres_properties_dropped_total"])
	assert.Equal(t, int64(1), sums["confres_resolve_total"])
}

func TestResolve_ConcurrentRequests(t *testing.T) {
	parser := fakeParser{
		"mem:a": {{"app.timeout", "30"}},
		"mem:b": {{"app.timeout", "60"}},
	}
	p, _ := newPipeline(t, parser)
	members := appMembers(t)

	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		order := []source.SourceID{"mem:a", "mem:b"}
		want := 60
		if i%2 == 0 {
			order = []source.SourceID{"mem:b", "mem:a"}
			want = 30
		}
		go func() {
			resolved, err := p.Resolve(context.Background(), order, members)
			if err != nil {
				errs <- err
				return
			}
			if got, _ := resolved.Get("timeout"); got.Coerced != want {
				errs <- fmt.Errorf("got %v, want %d", got.Coerced, want)
				return
			}
			errs <- nil
		}()
	}
	for i := 0; i < 16; i++ {
		assert.NoError(t, <-errs)
	}
}
