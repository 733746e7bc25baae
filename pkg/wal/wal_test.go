package wal

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Seq  int    `json:"seq"`
	Name string `json:"name"`
}

func TestWAL_WriteAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.wal")
	w, err := NewWAL(path)
	require.NoError(t, err)
	defer w.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, w.Write(record{Seq: i, Name: "entry"}))
	}

	var got []record
	err = w.ReadAll(func(raw []byte) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, i+1, r.Seq)
	}

	// 讀完之後仍然附加在檔尾
	require.NoError(t, w.Write(record{Seq: 4}))
	count := 0
	require.NoError(t, w.ReadAll(func([]byte) error { count++; return nil }))
	assert.Equal(t, 4, count)
}

func TestWAL_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.wal")
	w, err := NewWAL(path, WithSyncEveryWrite(false))
	require.NoError(t, err)
	require.NoError(t, w.Write(record{Seq: 1}))
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	w, err = NewWAL(path)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Write(record{Seq: 2}))

	count := 0
	require.NoError(t, w.ReadAll(func([]byte) error { count++; return nil }))
	assert.Equal(t, 2, count)
}

func TestWAL_ReadAllEmpty(t *testing.T) {
	w, err := NewWAL(filepath.Join(t.TempDir(), "empty.wal"))
	require.NoError(t, err)
	defer w.Close()

	called := false
	require.NoError(t, w.ReadAll(func([]byte) error { called = true; return nil }))
	assert.False(t, called)
}
