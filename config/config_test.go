// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	t.Run("will return an unset value", func(t *testing.T) {
		t.Run("if the variable is empty", func(t *testing.T) {
			t.Setenv("CONFIG_TEST_EMPTY", "")

			v, err := Env("CONFIG_TEST_EMPTY").Read(context.Background())
			require.Nil(t, err)

			_, set := v.Value()
			require.False(t, set)
		})
	})

	t.Run("will return the variable", func(t *testing.T) {
		t.Run("if it is set", func(t *testing.T) {
			t.Setenv("CONFIG_TEST_SET", "hello")

			s, err := Read(context.Background(), Env("CONFIG_TEST_SET"))
			require.Nil(t, err)
			require.Equal(t, "hello", s)
		})
	})
}

func TestRead(t *testing.T) {
	t.Run("will return ErrNoValue", func(t *testing.T) {
		t.Run("if the reader is empty", func(t *testing.T) {
			_, err := Read(context.Background(), EmptyReader[int]())
			require.ErrorIs(t, err, ErrNoValue)
		})

		t.Run("if the reader is nil", func(t *testing.T) {
			var r Reader[int]

			_, err := Read(context.Background(), r)
			require.ErrorIs(t, err, ErrNoValue)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the underlying reader fails", func(t *testing.T) {
			readErr := errors.New("failed")
			r := ReaderFunc[int](func(ctx context.Context) (Value[int], error) {
				return Value[int]{}, readErr
			})

			_, err := Read(context.Background(), Default(1, r))
			require.ErrorIs(t, err, readErr)
		})
	})
}

func TestOr(t *testing.T) {
	t.Run("will return the first set value", func(t *testing.T) {
		t.Run("if several readers are set", func(t *testing.T) {
			r := Or(EmptyReader[string](), ReaderOf("a"), ReaderOf("b"))

			s, err := Read(context.Background(), r)
			require.Nil(t, err)
			require.Equal(t, "a", s)
		})
	})
}

func TestFromString(t *testing.T) {
	t.Run("will return a ParseError", func(t *testing.T) {
		testCases := []struct {
			Name string
			Read func() error
		}{
			{
				Name: "if the int is malformed",
				Read: func() error {
					_, err := Read(context.Background(), IntFromString(ReaderOf("ten")))
					return err
				},
			},
			{
				Name: "if the float is malformed",
				Read: func() error {
					_, err := Read(context.Background(), Float64FromString(ReaderOf("half")))
					return err
				},
			},
			{
				Name: "if the bool is malformed",
				Read: func() error {
					_, err := Read(context.Background(), BoolFromString(ReaderOf("yes please")))
					return err
				},
			},
			{
				Name: "if the duration is malformed",
				Read: func() error {
					_, err := Read(context.Background(), DurationFromString(ReaderOf("soon")))
					return err
				},
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				err := testCase.Read()

				var perr ParseError
				require.ErrorAs(t, err, &perr)
			})
		}
	})

	t.Run("will keep the cause", func(t *testing.T) {
		t.Run("if an int is out of range", func(t *testing.T) {
			_, err := Read(context.Background(), IntFromString(ReaderOf("99999999999999999999")))
			require.ErrorIs(t, err, strconv.ErrRange)
		})
	})

	t.Run("will parse the value", func(t *testing.T) {
		t.Run("if it is well formed", func(t *testing.T) {
			ctx := context.Background()

			require.Equal(t, 42, Must(ctx, IntFromString(ReaderOf("42"))))
			require.Equal(t, 0.25, Must(ctx, Float64FromString(ReaderOf("0.25"))))
			require.True(t, Must(ctx, BoolFromString(ReaderOf("true"))))
			require.Equal(t, 3*time.Second, Must(ctx, DurationFromString(ReaderOf("3s"))))
		})
	})
}

func TestMustOr(t *testing.T) {
	t.Run("will panic", func(t *testing.T) {
		t.Run("if the value can not be parsed", func(t *testing.T) {
			require.Panics(t, func() {
				MustOr(context.Background(), 1, IntFromString(ReaderOf("one")))
			})
		})
	})

	t.Run("will return the default", func(t *testing.T) {
		t.Run("if the reader is unset", func(t *testing.T) {
			require.Equal(t, 7, MustOr(context.Background(), 7, EmptyReader[int]()))
		})
	})
}
