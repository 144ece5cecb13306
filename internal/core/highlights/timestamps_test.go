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

package highlights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestampNumbers(t *testing.T) {
	for _, in := range []interface{}{75, int64(75), float64(75.0), 75.9} {
		got, err := ParseTimestamp(in)
		assert.NoError(t, err)
		assert.Equal(t, 75, got)
	}
}

func TestParseTimestampStrings(t *testing.T) {
	cases := map[string]int{
		"75":      75,
		"75.5":    75,
		"1:15":    75,
		"0:01:15": 75,
		"1:00:00": 3600,
		"0":       0,
		"00:00":   0,
	}
	for in, want := range cases {
		got, err := ParseTimestamp(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []interface{}{"", "a:b", "1:2:3:4", "-5", nil, true} {
		_, err := ParseTimestamp(in)
		assert.Error(t, err, in)
	}
}

func TestFormatTimestampRoundTrip(t *testing.T) {
	for _, sec := range []int{0, 5, 59, 60, 75, 3599, 3600, 7325} {
		got, err := ParseTimestamp(FormatTimestamp(sec))
		assert.NoError(t, err)
		assert.Equal(t, sec, got)
	}
}

func TestCeilSeconds(t *testing.T) {
	assert.Equal(t, 11, CeilSeconds(10.04))
	assert.Equal(t, 10, CeilSeconds(10.0))
	assert.Equal(t, 0, CeilSeconds(0))
	assert.Equal(t, 0, CeilSeconds(-3.2))
}
