package ovm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// Expected addresses are the well-known CREATE test vectors: sender
// 0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0 at nonces 0-3.
func TestCreateAddress(t *testing.T) {
	sender := common.HexToAddress("0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0")
	cases := []struct {
		nonce uint64
		want  string
	}{
		{0, "0xcd234a471b72ba2f1ccf0a70fcaba648a5eecd8d"},
		{1, "0x343c43a37d37dff08ae8c4a11544c718abb4fcf8"},
		{2, "0xf778b86fa74e846c4f0a1fbd1335fe81c00a0c91"},
		{3, "0xfffd933a0bc612844eaf0c6fe3e5b8e9b6c1d19c"},
	}
	for _, c := range cases {
		got := CreateAddress(sender, c.nonce)
		if want := common.HexToAddress(c.want); got != want {
			t.Errorf("CreateAddress(nonce=%d) = %s, want %s", c.nonce, got.Hex(), want.Hex())
		}
	}
}

// Vectors from EIP-1014. Addresses are built from raw bytes rather than hex
// literals so a miscounted zero can't silently shift the expected value.
func TestCreateAddress2(t *testing.T) {
	deadbeefCaller := common.BytesToAddress(append([]byte{0xde, 0xad, 0xbe, 0xef}, make([]byte, 16)...))

	cases := []struct {
		caller   common.Address
		salt     *big.Int
		initCode []byte
		want     string
	}{
		{
			caller:   common.Address{},
			salt:     new(big.Int),
			initCode: []byte{0x00},
			want:     "0x4d1a2e2bb4f88f0250f26ffff098b0b30b26bf38",
		},
		{
			caller:   deadbeefCaller,
			salt:     new(big.Int),
			initCode: []byte{0x00},
			want:     "0xB928f69Bb1D91Cd65274e3c79d8986362984fDA3",
		},
	}
	for i, c := range cases {
		got := CreateAddress2(c.caller, c.salt, c.initCode)
		if want := common.HexToAddress(c.want); got != want {
			t.Errorf("case %d: CreateAddress2 = %s, want %s", i, got.Hex(), want.Hex())
		}
	}
}
