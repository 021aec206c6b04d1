package service

import (
	"fmt"
	"strings"
	"testing"

	"chezben/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestValidateAttributes(t *testing.T) {
	limits := AttributeLimits{MaxKeys: 3, MaxDepth: 2, MaxBytes: 64}
	many := map[string]interface{}{}
	for i := 0; i < 4; i++ {
		many[fmt.Sprintf("k%d", i)] = i
	}

	cases := []struct {
		name  string
		attrs map[string]interface{}
		ok    bool
	}{
		{"nil", nil, true},
		{"flat", map[string]interface{}{"marque": "Toyota", "annee": 2012}, true},
		{"two levels", map[string]interface{}{"moteur": map[string]interface{}{"cv": 110}}, true},
		{"list inside", map[string]interface{}{"options": []interface{}{"clim", "gps"}}, true},
		{"too many keys", many, false},
		{"too deep", map[string]interface{}{"a": map[string]interface{}{"b": map[string]interface{}{"c": 1}}}, false},
		{"too big", map[string]interface{}{"desc": strings.Repeat("x", 80)}, false},
		{"empty key", map[string]interface{}{"": 1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := limits.ValidateAttributes(tc.attrs)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			}
		})
	}
}
