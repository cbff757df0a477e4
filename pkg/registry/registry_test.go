package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() Table {
	return Table{
		"Liabilities:Card": {
			"BoC": {"1234", "5678"},
			"CMB": {"1111", "2222"},
		},
		"Assets:Card": {
			"BoC": {"4321", "8765"},
			"CMB": {"3333", "4444"},
		},
	}
}

func TestRegistry_LookupRoundTrip(t *testing.T) {
	table := testTable()
	r, err := New(table)
	require.NoError(t, err)
	assert.Equal(t, 8, r.Len())

	for prefix, banks := range table {
		for bank, numbers := range banks {
			for _, n := range numbers {
				got, err := r.Lookup(n)
				require.NoError(t, err)
				assert.Equal(t, prefix+":"+bank+":"+n, got)
			}
		}
	}
}

func TestRegistry_LookupNotFound(t *testing.T) {
	r, err := New(testTable())
	require.NoError(t, err)

	for _, n := range []string{"9999", "123", "12345", ""} {
		got, err := r.Lookup(n)
		assert.Empty(t, got)
		assert.True(t, errors.Is(err, ErrNotFound), "lookup %q", n)
	}
}

func TestNew_RejectsCollisions(t *testing.T) {
	table := testTable()
	table["Assets:Card"]["ICBC"] = []string{"1111"}

	_, err := New(table)
	require.Error(t, err)

	var collision *CollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "1111", collision.Number)
	assert.Len(t, collision.Entries, 2)
}

func TestNew_AllowsRepeatWithinSameBank(t *testing.T) {
	r, err := New(Table{"Assets:Card": {"CMB": {"3333", "3333"}}})
	require.NoError(t, err)
	got, err := r.Lookup("3333")
	require.NoError(t, err)
	assert.Equal(t, "Assets:Card:CMB:3333", got)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "6789", Tail("6222021234566789", 4))
	assert.Equal(t, "12", Tail("12", 4))
}

func TestCardTail(t *testing.T) {
	assert.Equal(t, "1234", CardTail("招商银行储蓄卡(1234)"))
	assert.Equal(t, "5678", CardTail("中国银行信用卡(5678)"))
	assert.Empty(t, CardTail("零钱"))
	assert.Empty(t, CardTail("花呗"))
}
