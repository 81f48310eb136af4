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

package mediaplane

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// DispatchClaims is the subset of a room token's claims this runtime
// reads. Room tokens are issued by an external HTTP endpoint out of scope
// for this runtime (spec §6); verifying the signature is that issuer's
// responsibility, not ours, so ParseDispatchDirective never checks it.
type DispatchClaims struct {
	jwt.RegisteredClaims
	RoomName       string `json:"room"`
	AgentDispatch  string `json:"agent_dispatch"`
	StudentIdentity string `json:"student_identity"`
}

// ParseDispatchDirective decodes rawToken to read the embedded
// agent-dispatch directive (which worker the student's token names) and
// room name, without verifying the token's signature. A student token
// embeds a directive naming the pipeline worker (spec §6).
func ParseDispatchDirective(rawToken string) (DispatchClaims, error) {
	var claims DispatchClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(rawToken, &claims); err != nil {
		return DispatchClaims{}, fmt.Errorf("mediaplane: parse dispatch directive: %w", err)
	}
	return claims, nil
}
