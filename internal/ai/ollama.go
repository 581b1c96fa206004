package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/keshon/compagnon/internal/config"
	"github.com/keshon/compagnon/pkg/retrylimit"
)

// StopSequences cut generation before the model starts speaking for someone
// else.
var StopSequences = []string{"\n\n", "User:", "Utilisateur:", "Assistant:", "Bot:", "Toi:"}

// Profile holds the hardware-dependent knobs.
type Profile struct {
	Name           string
	SimpleTimeout  time.Duration
	ComplexTimeout time.Duration
	SimplePredict  int
	ComplexPredict int
	NumGPU         *int
	NumThread      int
}

var (
	allGPU = -1
	noGPU  = 0

	GPU = Profile{
		Name:           "gpu",
		SimpleTimeout:  30 * time.Second,
		ComplexTimeout: 60 * time.Second,
		SimplePredict:  150,
		ComplexPredict: 300,
		NumGPU:         &allGPU,
		NumThread:      4,
	}
	CPU = Profile{
		Name:           "cpu",
		SimpleTimeout:  180 * time.Second,
		ComplexTimeout: 300 * time.Second,
		SimplePredict:  100,
		ComplexPredict: 200,
		NumGPU:         &noGPU,
	}
)

// ProfileByName returns GPU unless name is "cpu".
func ProfileByName(name string) Profile {
	if strings.EqualFold(name, CPU.Name) {
		return CPU
	}
	return GPU
}

type options struct {
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	TopK             int      `json:"top_k"`
	NumPredict       int      `json:"num_predict"`
	RepeatPenalty    float64  `json:"repeat_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	NumCtx           int      `json:"num_ctx,omitempty"`
	NumGPU           *int     `json:"num_gpu,omitempty"`
	NumThread        int      `json:"num_thread,omitempty"`
	Stop             []string `json:"stop"`
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Ollama calls the /api/generate endpoint of an Ollama server.
type Ollama struct {
	host       string
	model      string
	numCtx     int
	profile    Profile
	client     *http.Client
	limiter    *retrylimit.AdaptiveLimiter
	logger     *log.Logger
	onDuration func(complex bool, d time.Duration)
}

// NewOllama builds a client from cfg. Calls are throttled to at most
// cfg.AIRateLimit per second; overloads slow it down further.
func NewOllama(cfg *config.Config, logger *log.Logger) *Ollama {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ceiling := rate.Limit(max(cfg.AIRateLimit, 0.1))
	return &Ollama{
		host:    strings.TrimRight(cfg.OllamaHost, "/"),
		model:   cfg.OllamaModel,
		numCtx:  cfg.OllamaContextWindow,
		profile: ProfileByName(cfg.OllamaProfile),
		client:  &http.Client{},
		limiter: retrylimit.NewAdaptiveLimiter(ceiling, ceiling/8, ceiling, ceiling/8, 0.5),
		logger:  logger,
	}
}

// Profile returns the active hardware profile.
func (o *Ollama) Profile() Profile { return o.profile }

// Model returns the model identifier.
func (o *Ollama) Model() string { return o.model }

// OnDuration registers a hook called with the duration of every successful
// completion.
func (o *Ollama) OnDuration(fn func(complex bool, d time.Duration)) { o.onDuration = fn }

func (o *Ollama) timeout(complex bool) time.Duration {
	if complex {
		return o.profile.ComplexTimeout
	}
	return o.profile.SimpleTimeout
}

func (o *Ollama) options(complex bool) options {
	opts := options{
		Temperature:      0.7,
		TopP:             0.9,
		TopK:             40,
		NumPredict:       o.profile.SimplePredict,
		RepeatPenalty:    1.1,
		PresencePenalty:  0.5,
		FrequencyPenalty: 0.3,
		NumCtx:           o.numCtx,
		NumGPU:           o.profile.NumGPU,
		NumThread:        o.profile.NumThread,
		Stop:             StopSequences,
	}
	if complex {
		opts.Temperature = 0.6
		opts.NumPredict = o.profile.ComplexPredict
	}
	return opts
}

// Generate sends req and returns the raw completion text with think blocks
// removed. The call is abandoned once the profile timeout elapses, or
// earlier if ctx is done.
func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout(req.Complex))
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:   o.model,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: o.options(req.Complex),
	})
	if err != nil {
		return "", err
	}

	o.logger.Debug("generate", "model", o.model, "profile", o.profile.Name, "complex", req.Complex, "prompt_len", len(req.Prompt))
	start := time.Now()

	var text string
	err = retrylimit.Do(ctx, o.limiter, retrylimit.Policy{Attempts: 2, Delay: time.Second, Logger: o.logger}, func(ctx context.Context) error {
		out, err := o.post(ctx, body)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			o.logger.Warn("generate timed out", "after", time.Since(start).Round(time.Millisecond))
			return "", fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		o.logger.Error("generate failed", "err", err)
		if !errors.Is(err, ErrUnreachable) {
			err = fmt.Errorf("%w: %w", ErrUnreachable, err)
		}
		return "", err
	}

	d := time.Since(start)
	o.logger.Info("reply received", "in", d.Round(time.Millisecond), "profile", o.profile.Name)
	if o.onDuration != nil {
		o.onDuration(req.Complex, d)
	}
	return stripThink(text), nil
}

func (o *Ollama) post(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", retrylimit.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := &HTTPError{Status: resp.StatusCode, Body: truncate(raw)}
		if retrylimit.IsOverload(herr) {
			return "", herr
		}
		return "", retrylimit.Permanent(herr)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", retrylimit.Permanent(fmt.Errorf("%w: decode response: %w", ErrUnreachable, err))
	}
	return parsed.Response, nil
}

var thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

func stripThink(s string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(s, ""))
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
