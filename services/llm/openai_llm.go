// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultTimeout is the per-call budget when LLM_TIMEOUT_MS is not set.
const DefaultTimeout = 10 * time.Second

// OpenAIClient is an OpenAI-compatible Client implementation.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// Compile-time interface implementation check.
var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for the given model.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

// FromEnv builds a client from LLM_API_KEY, the model env key given, and
// LLM_TIMEOUT_MS.
//
// Description:
//
//	Returns (nil, nil) when LLM_API_KEY is unset: a missing key is not an
//	error, it disables the LLM-backed paths.
//
// Inputs:
//
//	modelEnvKey - Env var naming the model, e.g. LLM_MODEL_REWRITE
//	defaultModel - Model id used when the env var is empty
//
// Outputs:
//
//	Client - Nil when no API key is configured
//	error - Reserved; currently always nil
func FromEnv(modelEnvKey, defaultModel string) (Client, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		slog.Info("LLM_API_KEY not set, LLM-backed paths disabled", "model_env", modelEnvKey)
		return nil, nil
	}

	model := os.Getenv(modelEnvKey)
	if model == "" {
		model = defaultModel
		slog.Warn("model not set, using default", "env", modelEnvKey, "model", model)
	}

	timeout := DefaultTimeout
	if ms := os.Getenv("LLM_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			timeout = time.Duration(v) * time.Millisecond
		} else {
			slog.Warn("invalid LLM_TIMEOUT_MS, using default", "value", ms)
		}
	}

	slog.Info("Initializing LLM client", "model", model, "timeout", timeout)
	return NewOpenAIClient(apiKey, model, timeout), nil
}

// Generate implements the Client interface.
func (o *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxCompletionTokens = req.MaxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		slog.Error("LLM call failed", "model", o.model, "error", err)
		return "", fmt.Errorf("llm call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Model implements the Client interface.
func (o *OpenAIClient) Model() string {
	return o.model
}
