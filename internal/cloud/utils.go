// Copyright 2025 HealthTriage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with external services.
// This file contains the hierarchical configuration loader and the resilient
// chat completion helper used by the model-bound commands.
//
// Configuration loading reads a base file (.env.toml) and then overwrites its
// values with an environment-specific file (.env.<runtime>.toml). Directory
// and runtime are selected via environment variables so the same binary can
// run with local, test, or production settings.
package cloud

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	openai "github.com/sashabaranov/go-openai"
)

// Constants for configuration loading and API retry policy.
const (
	ConfigFileBaseName  = ".env"                 // The base name for configuration files.
	ConfigFileExtension = ".toml"                // The file extension for configuration files.
	ConfigSeparator     = "."                    // The separator in override file names (e.g., ".env.test.toml").
	EnvConfigFilePrefix = "TRIAGE_CONFIG_PREFIX" // The environment variable naming the config directory.
	EnvConfigRuntime    = "TRIAGE_RUNTIME"       // The environment variable naming the runtime context.
	MaxRetries          = 3                      // The maximum number of retries for a failed model call.
)

// fileExists reports whether a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the base TOML file and then from the
// runtime-specific override file, if either exists. The runtime defaults to
// "test" when the environment variable is unset.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	// Values in the runtime file overwrite values from the base file.
	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// GenerateChatResponse executes a chat completion through a rate-limited
// model with retries and token accounting. It returns the first choice's
// message content.
func GenerateChatResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	model ChatModel,
	messages []openai.ChatCompletionMessage) (value string, err error) {
	resp, err := model.GenerateContent(ctx, messages)
	if err != nil {
		if tryCount < MaxRetries {
			retryCounter.Add(ctx, 1)
			return GenerateChatResponse(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, model, messages)
		}
		return "", err
	}

	inputTokenCounter.Add(ctx, int64(resp.Usage.PromptTokens))
	outputTokenCounter.Add(ctx, int64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
