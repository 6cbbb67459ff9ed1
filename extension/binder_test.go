package extension

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/x"
)

type appOptions struct {
	Name    string `json:"name"`
	License string `json:"license"`
	Tests   bool   `json:"tests"`
}

func TestBinder_Bind(t *testing.T) {
	binder := NewBinder(x.NewType(reflect.TypeOf(appOptions{}), x.WithName("appOptions")))

	testCases := []struct {
		description string
		typeName    string
		args        map[string]interface{}
		expect      interface{}
		hasError    bool
	}{
		{
			description: "registered type",
			typeName:    "appOptions",
			args:        map[string]interface{}{"name": "demo", "tests": true},
			expect:      &appOptions{Name: "demo", Tests: true},
		},
		{
			description: "unknown type",
			typeName:    "missingOptions",
			args:        map[string]interface{}{},
			hasError:    true,
		},
	}

	for _, testCase := range testCases {
		actual, err := binder.Bind(testCase.typeName, testCase.args)
		if testCase.hasError {
			assert.NotNil(t, err, testCase.description)
			continue
		}
		if !assert.Nil(t, err, testCase.description) {
			continue
		}
		assert.EqualValues(t, testCase.expect, actual, testCase.description)
	}
}

func TestBinder_BindTo(t *testing.T) {
	binder := NewBinder()
	var opts appOptions
	err := binder.BindTo(map[string]interface{}{"name": "svc", "license": "MIT"}, &opts)
	assert.Nil(t, err)
	assert.EqualValues(t, appOptions{Name: "svc", License: "MIT"}, opts)

	err = binder.BindTo(map[string]interface{}{"name": "svc"}, nil)
	assert.NotNil(t, err)
}
