// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package openai provides kernel extensions backed by OpenAI-compatible APIs.
//
// Text, chat and embedding services use the langchaingo client and work
// against OpenAI or compatible servers (Ollama, LocalAI, vLLM). Image
// generation calls the images endpoint directly.
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("https://api.openai.com"),  // /v1 added automatically
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    ai.WithChatModel("gpt-4o"),
//	)
//
//	k, err := kernel.NewBuilder().
//	    With(openai.ChatCompletionService(cfg, ai.WithServiceID("gpt4"), ai.AsDefault())).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// The chat model is also the default text completion service.
//	text, err := k.TextCompletion("")
//
// Azure OpenAI deployments are registered with the Azure* variants, which
// take a deployment name, the resource endpoint and an API key.
//
// Configuration is checked when the extension is applied. Each registration
// builds its client, and any resilience policy, once on first resolution and
// shares it across later resolutions.
package openai
