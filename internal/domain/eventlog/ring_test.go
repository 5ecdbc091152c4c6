package eventlog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRing(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		want     int
	}{
		{name: "正常系: 指定容量", capacity: 10, want: 10},
		{name: "正常系: 0はデフォルト容量", capacity: 0, want: DefaultCapacity},
		{name: "正常系: 負数はデフォルト容量", capacity: -1, want: DefaultCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(tt.capacity, false)
			assert.Equal(t, tt.want, r.Capacity())
			assert.Equal(t, 0, r.Len())
			assert.Empty(t, r.List())
		})
	}
}

func TestRing_AppendKeepsInsertionOrder(t *testing.T) {
	r := NewRing(5, false)
	for i := 0; i < 3; i++ {
		r.Append(Entry{Step: fmt.Sprintf("step-%d", i)})
	}

	entries := r.List()
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("step-%d", i), e.Step)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestRing_EvictsOldest(t *testing.T) {
	r := NewRing(DefaultCapacity, false)
	for i := 1; i <= DefaultCapacity+1; i++ {
		r.Append(Entry{Data: fmt.Sprintf("%d", i)})
	}

	entries := r.List()
	require.Len(t, entries, DefaultCapacity)
	assert.Equal(t, "2", entries[0].Data)
	assert.Equal(t, fmt.Sprintf("%d", DefaultCapacity+1), entries[len(entries)-1].Data)
}

func TestRing_NeverExceedsCapacity(t *testing.T) {
	r := NewRing(3, false)
	for i := 0; i < 50; i++ {
		r.Append(Entry{Data: fmt.Sprintf("%d", i)})
		assert.LessOrEqual(t, r.Len(), 3)
	}
	entries := r.List()
	assert.Equal(t, []string{"47", "48", "49"}, []string{entries[0].Data, entries[1].Data, entries[2].Data})
}

func TestRing_Redaction(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{name: "カード番号は末尾4桁のみ", entry: Entry{Field: FieldCardNumber, Data: "4111111111111111"}, want: "************1111"},
		{name: "CVVは全てマスク", entry: Entry{Field: FieldCVV, Data: "123"}, want: "***"},
		{name: "有効期限は全てマスク", entry: Entry{Field: FieldExpiry, Data: "1225"}, want: "****"},
		{name: "金額はそのまま", entry: Entry{Field: FieldAmount, Data: "25"}, want: "25"},
		{name: "郵便番号はそのまま", entry: Entry{Field: FieldZIP, Data: "90210"}, want: "90210"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(1, true)
			r.Append(tt.entry)
			assert.Equal(t, tt.want, r.List()[0].Data)
		})
	}
}

func TestRing_RedactionDisabled(t *testing.T) {
	r := NewRing(1, false)
	r.Append(Entry{Field: FieldCardNumber, Data: "4111111111111111"})
	assert.Equal(t, "4111111111111111", r.List()[0].Data)
}

func TestRing_ConcurrentAppend(t *testing.T) {
	r := NewRing(DefaultCapacity, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.Append(Entry{CorrelationID: fmt.Sprintf("caller-%d", n)})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, DefaultCapacity, r.Len())
}

func TestEntry_HasError(t *testing.T) {
	assert.True(t, Entry{Error: "Invalid ZIP input"}.HasError())
	assert.False(t, Entry{}.HasError())
}
