package benchmark

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-tpm/tpm2"
	"github.com/hashicorp/go-multierror"
)

var (
	ErrUnknownFamily = errors.New("unknown algorithm family")
	ErrUnknownScheme = errors.New("unknown keyedhash scheme")
)

// Family is one algorithm family of the CreateLoaded sweep.
type Family int

const (
	FamilyRSA Family = iota
	FamilyECC
	FamilySymCipher
	FamilyKeyedHash
)

// Phase is a run of tuples sharing an attribute override.
type Phase struct {
	Name string
	// Attributes, if set, is applied to the family template for the
	// duration of the phase.
	Attributes func(*tpm2.TPMAObject)
	Tuples     []Tuple
}

type familyInfo struct {
	name      string
	selector  string
	algorithm tpm2.TPMAlgID
	header    []string
	phases    func(Params) ([]Phase, error)
}

var families = [...]familyInfo{
	FamilyRSA: {
		name:      "RSA",
		selector:  "rsa",
		algorithm: tpm2.TPMAlgRSA,
		header:    []string{"keyBits"},
		phases:    singlePhase(rsaTuples),
	},
	FamilyECC: {
		name:      "ECC",
		selector:  "ecc",
		algorithm: tpm2.TPMAlgECC,
		header:    []string{"curveId"},
		phases:    singlePhase(eccTuples),
	},
	FamilySymCipher: {
		name:      "SYMCIPHER",
		selector:  "symcipher",
		algorithm: tpm2.TPMAlgSymCipher,
		header:    []string{"algorithm", "keyBits"},
		phases:    singlePhase(symCipherTuples),
	},
	FamilyKeyedHash: {
		name:      "KEYEDHASH",
		selector:  "keyedhash",
		algorithm: tpm2.TPMAlgKeyedHash,
		header:    []string{"scheme", "details"},
		phases:    keyedHashPhases,
	},
}

func singlePhase(tuples func(Params) []Tuple) func(Params) ([]Phase, error) {
	return func(p Params) ([]Phase, error) {
		return []Phase{{Tuples: tuples(p)}}, nil
	}
}

// HMAC keys only sign.
func signOnly(a *tpm2.TPMAObject) {
	a.Decrypt = false
	a.SignEncrypt = true
}

func keyedHashPhases(p Params) ([]Phase, error) {
	var (
		phases []Phase
		errs   error
	)
	for _, scheme := range p.Schemes {
		tuples, err := keyedHashTuples(scheme)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		phase := Phase{Name: hex16(uint16(scheme)), Tuples: tuples}
		if scheme == tpm2.TPMAlgHMAC {
			phase.Attributes = signOnly
		}
		phases = append(phases, phase)
	}
	return phases, errs
}

// Families returns every family in sweep order.
func Families() []Family {
	return []Family{FamilyRSA, FamilyECC, FamilySymCipher, FamilyKeyedHash}
}

// ParseFamilies resolves an algorithm selector: "all" or one family name.
func ParseFamilies(selector string) ([]Family, error) {
	s := strings.ToLower(selector)
	if s == "all" {
		return Families(), nil
	}
	for _, f := range Families() {
		if families[f].selector == s {
			return []Family{f}, nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnknownFamily, selector)
}

func (f Family) valid() bool {
	return f >= 0 && int(f) < len(families)
}

func (f Family) String() string {
	if !f.valid() {
		return fmt.Sprintf("<invalid family %d>", int(f))
	}
	return families[f].name
}

// Algorithm is the TPM object type created by the family.
func (f Family) Algorithm() tpm2.TPMAlgID {
	return families[f].algorithm
}

// Header returns the parameter column names of the family.
func (f Family) Header() []string {
	return append([]string(nil), families[f].header...)
}

func (f Family) SummaryFile(prefix string) string {
	return prefix + f.String() + "_summary.csv"
}

func (f Family) RawFile(prefix string) string {
	return prefix + f.String() + "_all.csv"
}

// Phases enumerates the family's tuples grouped by attribute override.
// Phases that cannot be built are reported in the error while the others are
// still returned.
func (f Family) Phases(p Params) ([]Phase, error) {
	return families[f].phases(p)
}

// Tuples is the flattened sequence of Phases.
func (f Family) Tuples(p Params) ([]Tuple, error) {
	phases, err := f.Phases(p)
	var tuples []Tuple
	for _, phase := range phases {
		tuples = append(tuples, phase.Tuples...)
	}
	return tuples, err
}
