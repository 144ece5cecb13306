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

package cloud

import (
	"testing"

	"cloud.google.com/go/pubsub"
	"github.com/stretchr/testify/assert"
)

func TestNewPubSubListenerWiresDeadLetterTopic(t *testing.T) {
	listener, err := NewPubSubListener(&pubsub.Client{}, "hoops-jobs-sub", "hoops-jobs-dead-letter", nil)
	assert.NoError(t, err)
	assert.NotNil(t, listener.subscription)
	assert.NotNil(t, listener.deadLetter)
}

func TestNewPubSubListenerWithoutDeadLetterTopic(t *testing.T) {
	listener, err := NewPubSubListener(&pubsub.Client{}, "hoops-jobs-sub", "", nil)
	assert.NoError(t, err)
	assert.Nil(t, listener.deadLetter)
}
