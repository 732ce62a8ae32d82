// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package anthropic

import (
	"context"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hindsight-dev/hindsight/internal/oracle"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Compile-time interface check.
var _ oracle.Suite = (*Oracle)(nil)

// Config holds Anthropic oracle configuration.
type Config struct {
	APIKey        string
	BaseURL       string // optional, useful for testing against a mock server
	Model         string
	RelationTypes []string
}

const (
	defaultModel     = "claude-haiku-4-5"
	defaultMaxTokens = 1024
)

// Oracle implements the planner, classifier, and summarizer roles via the
// Anthropic Messages API.
type Oracle struct {
	client anthropicsdk.Client
	config Config
}

// New creates an Anthropic-backed oracle suite. Returns an error if the API
// key is missing.
func New(cfg Config) (*Oracle, error) {
	if cfg.APIKey == "" {
		return nil, hserr.New(hserr.CodeOracleConfigMissingKey, "anthropic: missing api_key in config")
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

	return &Oracle{client: anthropicsdk.NewClient(opts...), config: cfg}, nil
}

// complete issues one non-streaming message and returns the text plus token
// usage.
func (o *Oracle) complete(ctx context.Context, prompt string) (string, oracle.Usage, error) {
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(o.config.Model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
		Temperature: anthropicsdk.Float(0),
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return "", oracle.Usage{}, hserr.Errorf(hserr.CodeOracleRequestFailure, "anthropic message: %w", err)
	}

	usage := oracle.Usage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", usage, hserr.New(hserr.CodeOracleResponseInvalid, "anthropic message returned no text content")
	}
	return sb.String(), usage, nil
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
