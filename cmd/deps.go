package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/abhisek/mcqflow/internal/llm"
	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/sink"
	"github.com/abhisek/mcqflow/internal/store"
	"github.com/spf13/cobra"
)

// deps are the long-lived pieces shared by run, serve and stress.
type deps struct {
	store    *store.Store
	provider llm.Provider
	llmCfg   llm.Config
	sinks    sink.Multi
	redis    *sink.RedisSink
}

// openDeps opens the store, builds the provider chain and the result sinks.
// The caller must call close.
func openDeps(cmd *cobra.Command) (*deps, error) {
	ctx := cmd.Context()

	llmCfg, err := cfg.LLMProviderConfig()
	if err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}

	st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	d := &deps{store: st, llmCfg: llmCfg}

	d.provider, err = llm.NewProvider(ctx, llmCfg, st.EventRepo())
	if err != nil {
		d.close()
		return nil, err
	}

	d.sinks = sink.Multi{
		sink.NewFileSink(cfg.Output.Dir, cfg.Output.File),
		sink.NewStoreSink(st.RunRepo()),
	}
	if cfg.Redis.Enabled() {
		d.redis, err = sink.NewRedisSink(ctx, sink.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			d.close()
			return nil, fmt.Errorf("redis sink: %w", err)
		}
		d.sinks = append(d.sinks, d.redis)
	}
	return d, nil
}

func (d *deps) orchestrator(obs pipeline.Observer) *pipeline.Orchestrator {
	return pipeline.New(d.provider, pipeline.Config{
		Temperature: d.llmCfg.Temperature,
		Sink:        d.sinks,
		Observer:    obs,
	})
}

// status labels the provider for headers and logs.
func (d *deps) status() string {
	return d.llmCfg.Provider + " · " + d.provider.ModelID()
}

func (d *deps) close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: close redis: %v\n", err)
		}
	}
	d.store.Close()
}

// runFunc adapts deps to the interactive app and the web server, building
// one orchestrator per run so each gets its own observer.
func (d *deps) runFunc(base pipeline.Observer) func(ctx context.Context, topic string, obs pipeline.Observer) (*pipeline.RunResult, error) {
	return func(ctx context.Context, topic string, obs pipeline.Observer) (*pipeline.RunResult, error) {
		return d.orchestrator(pipeline.Observers{base, obs}).Run(ctx, topic)
	}
}
