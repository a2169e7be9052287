package types

import (
	"errors"
	"fmt"

	"github.com/cosmos/btcutil/bech32"
	"github.com/spacemeshos/go-scale"
)

const (
	// AddressLength is the expected length of the address.
	AddressLength = 24
	// AddressReservedSpace define how much bytes from top is reserved in address for future.
	AddressReservedSpace = 4
)

var (
	// ErrWrongAddressLength is returned when the length of the address is not correct.
	ErrWrongAddressLength = errors.New("wrong address length")
	// ErrUnsupportedNetwork is returned when a network is not supported.
	ErrUnsupportedNetwork = errors.New("unsupported network")
	// ErrDecodeBech32 is returned when an error occurs during decoding bech32.
	ErrDecodeBech32 = errors.New("error decoding bech32")
	// ErrMissingReservedSpace is returned if top bytes of address is not 0.
	ErrMissingReservedSpace = errors.New("missing reserved space")
)

var networkHrp = "sm"

// SetNetworkHRP updates the human readable part used for address encoding.
func SetNetworkHRP(update string) {
	networkHrp = update
}

// DefaultTestAddressConfig switches address encoding to the test network.
func DefaultTestAddressConfig() {
	SetNetworkHRP("stest")
}

// NetworkHRP returns the human readable part used for address encoding.
func NetworkHRP() string {
	return networkHrp
}

// Address represents the address of an account with AddressLength length.
type Address [AddressLength]byte

// StringToAddress returns a new Address from a given string like `sm1abc...`.
func StringToAddress(src string) (Address, error) {
	var addr Address
	hrp, data, err := bech32.DecodeNoLimit(src)
	if err != nil {
		return addr, fmt.Errorf("%w: %w", ErrDecodeBech32, err)
	}

	// for encoding bech32 uses slice of 5-bit unsigned integers. convert it back it 8-bit uints.
	dataConverted, err := bech32.ConvertBits(data, 5, 8, true)
	if err != nil {
		return addr, fmt.Errorf("error converting bech32 bits: %w", err)
	}

	// AddressLength+1 cause ConvertBits append empty byte to the end of the slice.
	if len(dataConverted) != AddressLength+1 {
		return addr, fmt.Errorf("expected %d bytes, got %d: %w", AddressLength, len(dataConverted), ErrWrongAddressLength)
	}
	if networkHrp != hrp {
		return addr, fmt.Errorf("wrong network id: expected `%s`, got `%s`: %w", networkHrp, hrp, ErrUnsupportedNetwork)
	}
	for i := 0; i < AddressReservedSpace; i++ {
		if dataConverted[i] != 0 {
			return addr, fmt.Errorf("expected first %d bytes to be 0, got %d: %w",
				AddressReservedSpace, dataConverted[i], ErrMissingReservedSpace)
		}
	}

	copy(addr[:], dataConverted[:])
	return addr, nil
}

// GenerateAddress generates an address from a public key or a hash.
// Only the last AddressLength-AddressReservedSpace bytes are used.
func GenerateAddress(data []byte) Address {
	var addr Address
	if len(data) > len(addr)-AddressReservedSpace {
		data = data[len(data)-AddressLength+AddressReservedSpace:]
	}
	copy(addr[AddressReservedSpace:], data)
	return addr
}

// Bytes gets the byte representation of the underlying address.
func (a Address) Bytes() []byte { return a[:] }

// IsEmpty checks if address is empty.
func (a Address) IsEmpty() bool {
	for i := AddressReservedSpace; i < AddressLength; i++ {
		if a[i] != 0 {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (a Address) String() string {
	dataConverted, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(fmt.Sprintf("error converting bech32 bits: %v", err))
	}
	result, err := bech32.Encode(networkHrp, dataConverted)
	if err != nil {
		panic(fmt.Sprintf("error encoding to bech32: %v", err))
	}
	return result
}

// ShortString returns the last part of the bech32 string, for logging purposes.
func (a Address) ShortString() string {
	s := a.String()
	if len(s) < 10 {
		return s
	}
	return s[len(s)-10:]
}

// Format implements fmt.Formatter, forcing the byte slice to be formatted as is,
// without going through the stringer interface used for logging.
func (a Address) Format(s fmt.State, c rune) {
	if c == 's' || c == 'v' {
		_, _ = fmt.Fprint(s, a.String())
		return
	}
	_, _ = fmt.Fprintf(s, "%"+string(c), a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(buf []byte) error {
	parsed, err := StringToAddress(string(buf))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// EncodeScale implements scale codec interface.
func (a *Address) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, a[:])
}

// DecodeScale implements scale codec interface.
func (a *Address) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, a[:])
}
