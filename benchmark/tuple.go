package benchmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-tpm/tpm2"
)

const (
	algFirst tpm2.TPMAlgID = 0x0001
	algLast  tpm2.TPMAlgID = 0x0044

	curveFirst tpm2.TPMECCCurve = 0x0000
	curveLast  tpm2.TPMECCCurve = 0x0020

	maxRSAKeyBits = 512 * 8
	maxSymKeyBits = 32 * 8
	keyBitsStep   = 32
)

// Tuple is one point of a parameter sweep. Only the fields that belong to
// Family are meaningful.
type Tuple struct {
	Family  Family
	KeyBits int
	CurveID tpm2.TPMECCCurve
	SymAlg  tpm2.TPMAlgID
	Scheme  tpm2.TPMAlgID
	HashAlg tpm2.TPMAlgID
	KDF     tpm2.TPMAlgID
}

// Fields renders the parameter columns of the tuple, matching Family.Header.
func (t Tuple) Fields() []string {
	switch t.Family {
	case FamilyRSA:
		return []string{strconv.Itoa(t.KeyBits)}
	case FamilyECC:
		return []string{hex16(uint16(t.CurveID))}
	case FamilySymCipher:
		return []string{hex16(uint16(t.SymAlg)), strconv.Itoa(t.KeyBits)}
	case FamilyKeyedHash:
		var details string
		switch t.Scheme {
		case tpm2.TPMAlgHMAC:
			details = hex16(uint16(t.HashAlg))
		case tpm2.TPMAlgXOR:
			details = hex16(uint16(t.HashAlg)) + "," + hex16(uint16(t.KDF))
		}
		return []string{hex16(uint16(t.Scheme)), details}
	}
	return nil
}

func (t Tuple) String() string {
	return strings.Join(t.Fields(), ";")
}

func hex16(v uint16) string {
	return fmt.Sprintf("%04x", v)
}

// Range is an inclusive key size range.
type Range struct {
	Min int
	Max int
}

// Params selects the portion of the parameter space a sweep covers.
type Params struct {
	RSAKeyBits Range
	SymKeyBits Range
	// KeyLen, when non zero, pins RSA and symmetric key sizes to one value.
	KeyLen int
	// Curve, when set, pins the ECC sweep to one curve.
	Curve *tpm2.TPMECCCurve
	// Schemes lists the keyed-hash schemes in sweep order.
	Schemes []tpm2.TPMAlgID
}

func DefaultParams() Params {
	return Params{
		RSAKeyBits: Range{Min: 0, Max: maxRSAKeyBits},
		SymKeyBits: Range{Min: 0, Max: maxSymKeyBits},
		Schemes:    []tpm2.TPMAlgID{tpm2.TPMAlgHMAC, tpm2.TPMAlgXOR, tpm2.TPMAlgNull},
	}
}

func (p Params) keyBits(r Range) []int {
	if p.KeyLen != 0 {
		return []int{p.KeyLen}
	}
	var bits []int
	for b := r.Min; b <= r.Max; b += keyBitsStep {
		bits = append(bits, b)
	}
	return bits
}

func rsaTuples(p Params) []Tuple {
	var tuples []Tuple
	for _, bits := range p.keyBits(p.RSAKeyBits) {
		tuples = append(tuples, Tuple{Family: FamilyRSA, KeyBits: bits})
	}
	return tuples
}

func eccTuples(p Params) []Tuple {
	if p.Curve != nil {
		return []Tuple{{Family: FamilyECC, CurveID: *p.Curve}}
	}
	var tuples []Tuple
	for curve := curveFirst; curve <= curveLast; curve++ {
		tuples = append(tuples, Tuple{Family: FamilyECC, CurveID: curve})
	}
	return tuples
}

func symCipherTuples(p Params) []Tuple {
	var tuples []Tuple
	bits := p.keyBits(p.SymKeyBits)
	for alg := algFirst; alg < algLast; alg++ {
		for _, b := range bits {
			tuples = append(tuples, Tuple{Family: FamilySymCipher, SymAlg: alg, KeyBits: b})
		}
	}
	return tuples
}

func keyedHashTuples(scheme tpm2.TPMAlgID) ([]Tuple, error) {
	var tuples []Tuple
	switch scheme {
	case tpm2.TPMAlgHMAC:
		for hash := algFirst; hash <= algLast; hash++ {
			tuples = append(tuples, Tuple{Family: FamilyKeyedHash, Scheme: scheme, HashAlg: hash})
		}
	case tpm2.TPMAlgXOR:
		for hash := algFirst; hash <= algLast; hash++ {
			for kdf := algFirst; kdf <= algLast; kdf++ {
				tuples = append(tuples, Tuple{Family: FamilyKeyedHash, Scheme: scheme, HashAlg: hash, KDF: kdf})
			}
		}
	case tpm2.TPMAlgNull:
		tuples = append(tuples, Tuple{Family: FamilyKeyedHash, Scheme: scheme})
	default:
		return nil, fmt.Errorf("%w: %04x", ErrUnknownScheme, uint16(scheme))
	}
	return tuples, nil
}
