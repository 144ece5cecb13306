// Copyright 2024 Google, LLC
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

// Package model defines the core data structures for the application.
// This file defines the Envelope, the JSON message the API publishes to the
// bus to hand a job to the worker tier. Delivery is at-least-once, so every
// field a worker run needs must travel in the envelope itself rather than in
// process memory.
package model

// Pipeline modes carried in Envelope.Mode. The worker dispatches on this
// value to pick which chain processes the message.
const (
	ModeAnalysis = "analysis"
	ModeVertex   = "vertex"
	ModeRender   = "render"
	// ModeOld is published by historical clients; it is handled as ModeAnalysis.
	ModeOld = "old"
)

// Envelope is the message carried on the bus that triggers a worker run.
type Envelope struct {
	JobId       string      `json:"jobId"`
	VideoGcsUri string      `json:"videoGcsUri"`
	OutBucket   string      `json:"outBucket"`
	UserId      string      `json:"userId,omitempty"`
	OwnerEmail  string      `json:"ownerEmail,omitempty"`
	Visibility  string      `json:"visibility,omitempty"`
	Mode        string      `json:"mode"`
	FinalClips  []FinalClip `json:"finalClips,omitempty"`
}

// NormalizedMode maps historical and empty mode values onto the three
// pipelines the worker actually runs.
func (e *Envelope) NormalizedMode() string {
	switch e.Mode {
	case ModeRender:
		return ModeRender
	case ModeVertex:
		return ModeVertex
	default:
		return ModeAnalysis
	}
}
