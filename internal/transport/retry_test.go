// go-em410x
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-em410x.
//
// go-em410x is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-em410x is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-em410x; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		t.Parallel()
		calls := 0
		retries := 0
		got, err := WithRetry(context.Background(), RetryConfig{
			MaxRetries: 3,
			OnRetry: func() error {
				retries++
				return nil
			},
		}, func(context.Context) (int, bool, error) {
			calls++
			return calls, calls < 3, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, got)
		assert.Equal(t, 2, retries)
	})

	t.Run("Exhausted", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := WithRetry(context.Background(), RetryConfig{MaxRetries: 2, Description: "hello"},
			func(context.Context) (struct{}, bool, error) {
				calls++
				return struct{}{}, true, nil
			})
		require.ErrorIs(t, err, em410x.ErrCommunicationFailed)
		assert.Equal(t, 3, calls)
	})

	t.Run("ErrorAborts", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		calls := 0
		_, err := WithRetry(context.Background(), RetryConfig{MaxRetries: 5},
			func(context.Context) (int, bool, error) {
				calls++
				return 0, true, boom
			})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		_, err := WithRetry(ctx, RetryConfig{MaxRetries: 5, RetryDelay: time.Hour},
			func(context.Context) (int, bool, error) {
				cancel()
				return 0, true, nil
			})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTimeoutRetry(t *testing.T) {
	t.Parallel()

	_, err := TimeoutRetry(context.Background(), 20*time.Millisecond,
		func(context.Context) (int, bool, error) {
			return 0, true, nil
		})
	require.ErrorIs(t, err, em410x.ErrTransportTimeout)

	got, err := TimeoutRetry(context.Background(), time.Second,
		func(context.Context) (string, bool, error) {
			return "ok", false, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
