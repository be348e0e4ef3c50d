package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(1999, time.March, 31)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1999-03-31"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, d.Equal(decoded.Time))
}

func TestDateUnmarshalRejectsBadInput(t *testing.T) {
	tests := []string{`"31-03-1999"`, `"1999-13-01"`, `""`, `null`, `"yesterday"`}
	for _, input := range tests {
		var d Date
		assert.Error(t, json.Unmarshal([]byte(input), &d), "input %s should fail", input)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2010, time.July, 16, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2010-07-16", d.String())

	require.NoError(t, d.Scan("2010-07-16"))
	assert.Equal(t, "2010-07-16", d.String())

	assert.Error(t, d.Scan(42))
}
