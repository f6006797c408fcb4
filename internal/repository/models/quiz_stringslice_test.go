package models

import (
	"database/sql/driver"
	"reflect"
	"testing"
)

func TestStringSlice_Value(t *testing.T) {
	tests := []struct {
		name    string
		s       StringSlice
		wantVal driver.Value
		wantErr bool
	}{
		{
			name:    "nil slice",
			s:       nil,
			wantVal: "[]",
			wantErr: false,
		},
		{
			name:    "empty slice",
			s:       StringSlice{},
			wantVal: "[]",
			wantErr: false,
		},
		{
			name:    "slice with one element",
			s:       StringSlice{"apple"},
			wantVal: `["apple"]`,
			wantErr: false,
		},
		{
			name:    "slice with multiple elements",
			s:       StringSlice{"apple", "banana"},
			wantVal: `["apple","banana"]`,
			wantErr: false,
		},
		{
			name:    "slice with empty string element",
			s:       StringSlice{"", "test"},
			wantVal: `["","test"]`,
			wantErr: false,
		},
		{
			name:    "element with quotes is escaped",
			s:       StringSlice{`say "hi"`},
			wantVal: `["say \"hi\""]`,
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotVal, err := tt.s.Value()
			if (err != nil) != tt.wantErr {
				t.Errorf("StringSlice.Value() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(gotVal, tt.wantVal) {
				t.Errorf("StringSlice.Value() gotVal = %v, want %v", gotVal, tt.wantVal)
			}
		})
	}
}

func TestStringSlice_Scan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		wantS   StringSlice
		wantErr bool
	}{
		{
			name:    "nil input",
			value:   nil,
			wantS:   StringSlice{},
			wantErr: false,
		},
		{
			name:    "empty string input",
			value:   "",
			wantS:   StringSlice{},
			wantErr: false,
		},
		{
			name:    "null literal input",
			value:   "null",
			wantS:   StringSlice{},
			wantErr: false,
		},
		{
			name:    "empty json array",
			value:   "[]",
			wantS:   StringSlice{},
			wantErr: false,
		},
		{
			name:    "single element",
			value:   `["apple"]`,
			wantS:   StringSlice{"apple"},
			wantErr: false,
		},
		{
			name:    "multiple elements",
			value:   `["apple","banana"]`,
			wantS:   StringSlice{"apple", "banana"},
			wantErr: false,
		},
		{
			name:    "byte slice input",
			value:   []byte(`["apple","banana"]`),
			wantS:   StringSlice{"apple", "banana"},
			wantErr: false,
		},
		{
			name:    "empty byte slice input",
			value:   []byte(""),
			wantS:   StringSlice{},
			wantErr: false,
		},
		{
			name:    "invalid json",
			value:   `["apple"`,
			wantS:   nil,
			wantErr: true,
		},
		{
			name:    "unsupported type int",
			value:   int(123),
			wantS:   nil,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s StringSlice
			err := s.Scan(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("StringSlice.Scan() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !reflect.DeepEqual(s, tt.wantS) {
				t.Errorf("StringSlice.Scan() gotS = %v, want %v", s, tt.wantS)
			}
		})
	}
}
