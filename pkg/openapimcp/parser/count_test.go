package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountEndpoints(t *testing.T) {
	cases := []struct {
		name string
		spec string
		want int
	}{
		{
			name: "mixed methods",
			spec: `{"paths": {"/ping": {"get": {}}, "/coins": {"get": {}, "post": {}}}}`,
			want: 3,
		},
		{
			name: "empty paths",
			spec: `{"paths": {}}`,
			want: 0,
		},
		{
			name: "no paths key",
			spec: `{"openapi": "3.0.0"}`,
			want: 0,
		},
		{
			name: "non-method keys ignored",
			spec: `{"paths": {"/coins/{id}": {"parameters": [], "summary": "coin", "description": "d", "servers": [], "get": {}}}}`,
			want: 1,
		},
		{
			name: "all eight verbs",
			spec: `{"paths": {"/x": {"get": {}, "post": {}, "put": {}, "delete": {}, "patch": {}, "head": {}, "options": {}, "trace": {}}}}`,
			want: 8,
		},
		{
			name: "upper case keys are not methods",
			spec: `{"paths": {"/x": {"GET": {}, "get": {}}}}`,
			want: 1,
		},
		{
			name: "yaml document",
			spec: "paths:\n  /ping:\n    get: {}\n  /search:\n    get: {}\n    head: {}\n",
			want: 3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CountEndpointsInSpec([]byte(tc.spec))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCountEndpointsIgnoresMalformedPathItems(t *testing.T) {
	doc := map[string]interface{}{
		"paths": map[string]interface{}{
			"/broken": "not an object",
			"/ok":     map[string]interface{}{"get": map[string]interface{}{}},
		},
	}
	assert.Equal(t, 1, CountEndpoints(doc))
}

func TestCountEndpointsInSpecRejectsGarbage(t *testing.T) {
	_, err := CountEndpointsInSpec([]byte("{not: [valid"))
	assert.Error(t, err)
}
