package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeEngine returns a fixed outcome after a delay.
type fakeEngine struct {
	name  string
	delay time.Duration
	err   error
	calls atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{EngineName: f.name, FinalURL: req.URL, Strategy: "generic"}, nil
}

func TestDispatch_FirstEngineWins(t *testing.T) {
	httpEng := &fakeEngine{name: NameHTTP}
	rodEng := &fakeEngine{name: NameRod}
	mem := NewDomainMemory(time.Hour, time.Hour)
	defer mem.Stop()
	d := NewDispatcher([]Engine{httpEng, rodEng}, []time.Duration{0, 200 * time.Millisecond}, mem)

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://Loja.example.com/p/1"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != NameHTTP {
		t.Errorf("engine = %q, want %q", res.EngineName, NameHTTP)
	}
	if rodEng.calls.Load() != 0 {
		t.Errorf("rod started although http won before its delay")
	}
	if got := mem.Get("loja.example.com"); got != NameHTTP {
		t.Errorf("memory = %q, want %q", got, NameHTTP)
	}
}

func TestDispatch_EscalatesOnFailure(t *testing.T) {
	httpEng := &fakeEngine{name: NameHTTP, err: ErrNeedsBrowser}
	rodEng := &fakeEngine{name: NameRod}
	d := NewDispatcher([]Engine{httpEng, rodEng}, []time.Duration{0, 10 * time.Millisecond}, nil)

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://loja.example.com/p/1"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != NameRod {
		t.Errorf("engine = %q, want %q", res.EngineName, NameRod)
	}
}

func TestDispatch_AllFail(t *testing.T) {
	errRod := errors.New("rod down")
	d := NewDispatcher([]Engine{
		&fakeEngine{name: NameHTTP, err: ErrNeedsBrowser},
		&fakeEngine{name: NameRod, err: errRod, delay: 5 * time.Millisecond},
	}, []time.Duration{0, 0}, nil)

	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://loja.example.com/p/1"})
	if !errors.Is(err, errRod) {
		t.Errorf("err = %v, want last error %v", err, errRod)
	}
}

func TestDispatch_RememberedEngineFirst(t *testing.T) {
	httpEng := &fakeEngine{name: NameHTTP}
	rodEng := &fakeEngine{name: NameRod}
	mem := NewDomainMemory(time.Hour, time.Hour)
	defer mem.Stop()
	mem.Set("loja.example.com", NameRod)
	d := NewDispatcher([]Engine{httpEng, rodEng}, []time.Duration{0, time.Second}, mem)

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://loja.example.com/p/2"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != NameRod {
		t.Errorf("engine = %q, want remembered %q", res.EngineName, NameRod)
	}
	if httpEng.calls.Load() != 0 {
		t.Error("http ran although rod was remembered")
	}
}

func TestDispatch_RememberedEngineFailsFallsBackToRace(t *testing.T) {
	httpEng := &fakeEngine{name: NameHTTP, err: ErrNeedsBrowser}
	rodEng := &fakeEngine{name: NameRod}
	mem := NewDomainMemory(time.Hour, time.Hour)
	defer mem.Stop()
	mem.Set("loja.example.com", NameHTTP)
	d := NewDispatcher([]Engine{httpEng, rodEng}, []time.Duration{0, 0}, mem)

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://loja.example.com/p/3"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != NameRod {
		t.Errorf("engine = %q, want %q", res.EngineName, NameRod)
	}
	if got := mem.Get("loja.example.com"); got != NameRod {
		t.Errorf("memory = %q, want %q after fallback", got, NameRod)
	}
}

func TestUse(t *testing.T) {
	httpEng := &fakeEngine{name: NameHTTP}
	rodEng := &fakeEngine{name: NameRod}
	mem := NewDomainMemory(time.Hour, time.Hour)
	defer mem.Stop()
	d := NewDispatcher([]Engine{httpEng, rodEng}, nil, mem)

	res, err := d.Use(context.Background(), NameRod, &FetchRequest{URL: "https://loja.example.com/p/4"})
	if err != nil {
		t.Fatalf("Use: %v", err)
	}
	if res.EngineName != NameRod || httpEng.calls.Load() != 0 {
		t.Errorf("Use ran the wrong engine: result %q, http calls %d", res.EngineName, httpEng.calls.Load())
	}
	if got := mem.Get("loja.example.com"); got != "" {
		t.Errorf("Use wrote domain memory: %q", got)
	}

	if _, err := d.Use(context.Background(), "curl", &FetchRequest{}); err == nil {
		t.Error("Use with unknown engine should fail")
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://WWW.Loja.com.br/produto?id=1", "www.loja.com.br"},
		{"http://localhost:8080/p", "localhost"},
		{"::not a url", "::not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := extractDomain(tt.in); got != tt.want {
				t.Errorf("extractDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDispatch_CanceledContext(t *testing.T) {
	httpEng := &fakeEngine{name: NameHTTP}
	d := NewDispatcher([]Engine{httpEng}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, &FetchRequest{URL: "https://loja.example.com/p/5"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if httpEng.calls.Load() != 0 {
		t.Error("engine ran on a canceled context")
	}
}
