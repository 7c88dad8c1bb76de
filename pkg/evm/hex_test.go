package evm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"小写原样", "0x55d398326f99059ff775485246999027b3197955", "0x55d398326f99059ff775485246999027b3197955", false},
		{"混合大小写转小写", "0x55d398326f99059fF775485246999027B3197955", "0x55d398326f99059ff775485246999027b3197955", false},
		{"缺 0x 前缀", "55d398326f99059ff775485246999027b3197955", "", true},
		{"长度不对", "0x55d398", "", true},
		{"非十六进制", "0xzzd398326f99059ff775485246999027b3197955", "", true},
		{"空串", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAddress(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHexToBigRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"零", "0x0", "0"},
		{"普通值", "0x10", "16"},
		{"带前导零", "0x0000000000000000000000000000000000000000000000000000000005f5e100", "100000000"},
		{"256 位大数", "0x" + strings.Repeat("ff", 32), new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)).String()},
		{"空数据视为零", "0x", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HexToBig(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestHexToBigInvalid(t *testing.T) {
	_, err := HexToBig("0xzz")
	assert.Error(t, err)
}

func TestUint64ToHex(t *testing.T) {
	assert.Equal(t, "0x0", Uint64ToHex(0))
	assert.Equal(t, "0x4b0", Uint64ToHex(1200))
}

func TestAddressTopicRoundTrip(t *testing.T) {
	addr := "0x55d398326f99059ff775485246999027b3197955"

	topic := AddressTopic(addr)
	assert.Len(t, topic, 66, "topic 应该是 32 字节的十六进制")

	back := TopicAddress(common.HexToHash(topic))
	assert.Equal(t, addr, back)
}
