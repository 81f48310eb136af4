// Copyright 2025 The NLP Odyssey Authors
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

package worker

import "context"

// VADLoader loads the voice-activity-detection model the pipeline worker
// needs before it can accept room-join jobs (spec §4.5 "Prewarm"). The
// concrete implementation binds to whichever VAD model ships with the
// speech-to-text boundary; this package only needs the loader shape.
type VADLoader interface {
	Load(ctx context.Context) error
}

// Prewarm awaits loader's asynchronous load. Calling it synchronously
// (blocking the caller until it returns) is the point: a fire-and-forget
// call here silently fails per the spec's explicit warning, because the
// pipeline worker would start accepting jobs before the model is ready.
func Prewarm(ctx context.Context, loader VADLoader) error {
	return loader.Load(ctx)
}
