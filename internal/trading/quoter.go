package trading

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// getAmountsOut(uint256,address[]) selector.
const selectorGetAmountsOut = "0xd06ca61f"

// tokenUnit is the smallest-unit scale of an 18-decimal token.
var tokenUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Caller executes read-only contract calls.
type Caller interface {
	Call(ctx context.Context, to string, data string) (string, error)
}

// Quoter prices swaps through the router's getAmountsOut. Token amounts are
// whole tokens; the quoter assumes the 18 decimals virtually every BSC
// launch token uses.
type Quoter struct {
	node   Caller
	router string
	wbnb   string
}

// NewQuoter creates a Quoter against a V2 router.
func NewQuoter(node Caller, routerAddress, wbnbAddress string) *Quoter {
	return &Quoter{
		node:   node,
		router: routerAddress,
		wbnb:   strings.ToLower(wbnbAddress),
	}
}

// TokensForBNB quotes how many whole tokens a BNB amount buys.
func (q *Quoter) TokensForBNB(ctx context.Context, tokenAddress string, amountBNB decimal.Decimal) (int64, error) {
	amountIn := bnbToWei(amountBNB)
	if amountIn.Sign() <= 0 {
		return 0, fmt.Errorf("non-positive buy amount %s", amountBNB)
	}

	out, err := q.amountsOut(ctx, amountIn, q.wbnb, tokenAddress)
	if err != nil {
		return 0, err
	}
	return new(big.Int).Div(out, tokenUnit).Int64(), nil
}

// BNBForTokens quotes the BNB proceeds of selling whole tokens.
func (q *Quoter) BNBForTokens(ctx context.Context, tokenAddress string, amountTokens int64) (decimal.Decimal, error) {
	if amountTokens <= 0 {
		return decimal.Zero, fmt.Errorf("non-positive sell amount %d", amountTokens)
	}
	amountIn := new(big.Int).Mul(big.NewInt(amountTokens), tokenUnit)

	out, err := q.amountsOut(ctx, amountIn, tokenAddress, q.wbnb)
	if err != nil {
		return decimal.Zero, err
	}
	return weiToBNB(out), nil
}

// TokenPrice quotes the BNB price of one whole token.
func (q *Quoter) TokenPrice(ctx context.Context, tokenAddress string) (decimal.Decimal, error) {
	return q.BNBForTokens(ctx, tokenAddress, 1)
}

// amountsOut calls getAmountsOut(amountIn, [from, to]) and returns the
// final amount.
func (q *Quoter) amountsOut(ctx context.Context, amountIn *big.Int, from, to string) (*big.Int, error) {
	data := packGetAmountsOut(amountIn, from, to)

	raw, err := q.node.Call(ctx, q.router, data)
	if err != nil {
		return nil, fmt.Errorf("getAmountsOut: %w", err)
	}

	amounts, err := unpackUintArray(raw)
	if err != nil {
		return nil, fmt.Errorf("decode getAmountsOut result: %w", err)
	}
	if len(amounts) < 2 {
		return nil, ErrNoLiquidity
	}
	return amounts[len(amounts)-1], nil
}

// packGetAmountsOut hand-packs the calldata: selector, amountIn, the
// dynamic array offset, then the two-element path.
func packGetAmountsOut(amountIn *big.Int, from, to string) string {
	var b strings.Builder
	b.WriteString(selectorGetAmountsOut)
	b.WriteString(padWord(amountIn.Text(16)))
	b.WriteString(padWord("40")) // offset of address[] within the args
	b.WriteString(padWord("2"))  // path length
	b.WriteString(padWord(strings.TrimPrefix(strings.ToLower(from), "0x")))
	b.WriteString(padWord(strings.TrimPrefix(strings.ToLower(to), "0x")))
	return b.String()
}

// unpackUintArray decodes an ABI-encoded uint256[] return value.
func unpackUintArray(raw string) ([]*big.Int, error) {
	hex := strings.TrimPrefix(raw, "0x")
	if len(hex) < 128 || len(hex)%64 != 0 {
		return nil, fmt.Errorf("malformed return data (%d hex chars)", len(hex))
	}

	// Word 0 is the array offset, word 1 the length.
	length, ok := new(big.Int).SetString(hex[64:128], 16)
	if !ok {
		return nil, fmt.Errorf("malformed array length")
	}
	n := int(length.Int64())
	if len(hex) < 128+n*64 {
		return nil, fmt.Errorf("return data shorter than declared length %d", n)
	}

	amounts := make([]*big.Int, 0, n)
	for i := 0; i < n; i++ {
		start := 128 + i*64
		v, ok := new(big.Int).SetString(hex[start:start+64], 16)
		if !ok {
			return nil, fmt.Errorf("malformed array element %d", i)
		}
		amounts = append(amounts, v)
	}
	return amounts, nil
}

// padWord left-pads a hex string to a 32-byte word.
func padWord(hex string) string {
	if len(hex) >= 64 {
		return hex[len(hex)-64:]
	}
	return strings.Repeat("0", 64-len(hex)) + hex
}

func bnbToWei(amount decimal.Decimal) *big.Int {
	return amount.Mul(decimal.New(1, 18)).BigInt()
}

func weiToBNB(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -18)
}
