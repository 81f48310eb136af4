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

package safety

// Categories is the fixed 13-category moderation vocabulary (spec §4.1).
// Adding or removing a category is a contract break;
// TestCategories_RegressionCount guards it.
var Categories = []string{
	"harassment",
	"harassment/threatening",
	"hate",
	"hate/threatening",
	"sexual",
	"sexual/minors",
	"violence",
	"violence/graphic",
	"self-harm",
	"self-harm/intent",
	"self-harm/instructions",
	"illicit",
	"illicit/violent",
}

// CategoryCount is the contract-fixed category count.
const CategoryCount = 13
