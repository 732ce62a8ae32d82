// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package openai

import (
	"context"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/hindsight-dev/hindsight/internal/oracle"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Compile-time interface check.
var _ oracle.Suite = (*Oracle)(nil)

// Config holds OpenAI oracle configuration.
type Config struct {
	APIKey        string
	BaseURL       string // optional, useful for testing against a mock server
	Model         string
	RelationTypes []string
}

const defaultModel = "gpt-4.1-mini"

// Oracle implements the planner, classifier, and summarizer roles via the
// OpenAI Chat Completions API.
type Oracle struct {
	client openaisdk.Client
	config Config
}

// New creates an OpenAI-backed oracle suite. Returns an error if the API
// key is missing.
func New(cfg Config) (*Oracle, error) {
	if cfg.APIKey == "" {
		return nil, hserr.New(hserr.CodeOracleConfigMissingKey, "openai: missing api_key in config")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Oracle{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

// complete issues one non-streaming completion and returns the text plus
// token usage.
func (o *Oracle) complete(ctx context.Context, prompt string) (string, oracle.Usage, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: shared.ChatModel(o.config.Model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(prompt),
		},
		Temperature: param.NewOpt(0.0),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", oracle.Usage{}, hserr.Errorf(hserr.CodeOracleRequestFailure, "openai completion: %w", err)
	}

	usage := oracle.Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	if len(resp.Choices) == 0 {
		return "", usage, hserr.New(hserr.CodeOracleResponseInvalid, "openai completion returned no choices")
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func (o *Oracle) Plan(ctx context.Context, queryText, _ string) (*oracle.QueryPlan, oracle.Usage, error) {
	text, usage, err := o.complete(ctx, oracle.PlanPrompt(queryText, time.Now()))
	if err != nil {
		return nil, usage, err
	}
	plan, err := oracle.DecodePlan(text)
	if err != nil {
		return nil, usage, err
	}
	return plan, usage, nil
}

func (o *Oracle) Classify(ctx context.Context, candidate oracle.SegmentAttrs, members []oracle.SegmentAttrs) (*oracle.Classification, oracle.Usage, error) {
	text, usage, err := o.complete(ctx, oracle.ClassifyPrompt(candidate, members, o.config.RelationTypes))
	if err != nil {
		return nil, usage, err
	}
	cls, err := oracle.DecodeClassification(text)
	if err != nil {
		return nil, usage, err
	}
	return cls, usage, nil
}

func (o *Oracle) Summarize(ctx context.Context, contextText string, nodes []oracle.NodeSummary) (string, oracle.Usage, error) {
	return o.complete(ctx, oracle.SummarizePrompt(contextText, nodes))
}
