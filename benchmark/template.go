package benchmark

import (
	"fmt"

	"github.com/google/go-tpm/tpm2"
)

// Template holds the public area shared by every tuple of a family. Build
// never mutates it; only Override does, and the returned restore function
// undoes the change.
type Template struct {
	family Family
	public tpm2.TPMTPublic
}

func NewTemplate(f Family) *Template {
	return &Template{
		family: f,
		public: tpm2.TPMTPublic{
			Type:    f.Algorithm(),
			NameAlg: tpm2.TPMAlgSHA256,
			ObjectAttributes: tpm2.TPMAObject{
				FixedTPM:            true,
				FixedParent:         true,
				SensitiveDataOrigin: true,
				UserWithAuth:        true,
				Decrypt:             true,
			},
		},
	}
}

// Attributes returns the current object attributes of the template.
func (t *Template) Attributes() tpm2.TPMAObject {
	return t.public.ObjectAttributes
}

// Override applies mutate to the template attributes and returns a function
// restoring the previous attributes. A nil mutate is a no-op.
func (t *Template) Override(mutate func(*tpm2.TPMAObject)) (restore func()) {
	saved := t.public.ObjectAttributes
	if mutate != nil {
		mutate(&t.public.ObjectAttributes)
	}
	return func() {
		t.public.ObjectAttributes = saved
	}
}

// Build returns a fresh descriptor for the tuple.
func (t *Template) Build(tuple Tuple) (*tpm2.TPMTPublic, error) {
	if tuple.Family != t.family {
		return nil, fmt.Errorf("tuple of family %v does not fit %v template", tuple.Family, t.family)
	}

	public := t.public
	switch tuple.Family {
	case FamilyRSA:
		public.Parameters = tpm2.NewTPMUPublicParms(
			tpm2.TPMAlgRSA,
			&tpm2.TPMSRSAParms{
				Symmetric: tpm2.TPMTSymDefObject{
					Algorithm: tpm2.TPMAlgNull,
				},
				Scheme: tpm2.TPMTRSAScheme{
					Scheme: tpm2.TPMAlgNull,
				},
				KeyBits: tpm2.TPMKeyBits(tuple.KeyBits),
			},
		)
	case FamilyECC:
		public.Parameters = tpm2.NewTPMUPublicParms(
			tpm2.TPMAlgECC,
			&tpm2.TPMSECCParms{
				Symmetric: tpm2.TPMTSymDefObject{
					Algorithm: tpm2.TPMAlgNull,
				},
				Scheme: tpm2.TPMTECCScheme{
					Scheme: tpm2.TPMAlgNull,
				},
				CurveID: tuple.CurveID,
				KDF: tpm2.TPMTKDFScheme{
					Scheme: tpm2.TPMAlgNull,
				},
			},
		)
	case FamilySymCipher:
		public.Parameters = tpm2.NewTPMUPublicParms(
			tpm2.TPMAlgSymCipher,
			&tpm2.TPMSSymCipherParms{
				Sym: symDefObject(tuple.SymAlg, tuple.KeyBits),
			},
		)
	case FamilyKeyedHash:
		scheme, err := keyedHashScheme(tuple)
		if err != nil {
			return nil, err
		}
		public.Parameters = tpm2.NewTPMUPublicParms(
			tpm2.TPMAlgKeyedHash,
			&tpm2.TPMSKeyedHashParms{
				Scheme: scheme,
			},
		)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, int(tuple.Family))
	}
	return &public, nil
}

// symDefObject sets the key size and CFB mode for the block ciphers go-tpm can
// marshal; any other algorithm is sent bare and left for TestParms to judge.
func symDefObject(alg tpm2.TPMAlgID, keyBits int) tpm2.TPMTSymDefObject {
	def := tpm2.TPMTSymDefObject{Algorithm: alg}
	switch alg {
	case tpm2.TPMAlgTDES, tpm2.TPMAlgAES, tpm2.TPMAlgSM4, tpm2.TPMAlgCamellia:
		def.KeyBits = tpm2.NewTPMUSymKeyBits(alg, tpm2.TPMKeyBits(keyBits))
		def.Mode = tpm2.NewTPMUSymMode(alg, tpm2.TPMAlgCFB)
	}
	return def
}

func keyedHashScheme(tuple Tuple) (tpm2.TPMTKeyedHashScheme, error) {
	switch tuple.Scheme {
	case tpm2.TPMAlgHMAC:
		return tpm2.TPMTKeyedHashScheme{
			Scheme: tpm2.TPMAlgHMAC,
			Details: tpm2.NewTPMUSchemeKeyedHash(tpm2.TPMAlgHMAC,
				&tpm2.TPMSSchemeHMAC{
					HashAlg: tuple.HashAlg,
				}),
		}, nil
	case tpm2.TPMAlgXOR:
		return tpm2.TPMTKeyedHashScheme{
			Scheme: tpm2.TPMAlgXOR,
			Details: tpm2.NewTPMUSchemeKeyedHash(tpm2.TPMAlgXOR,
				&tpm2.TPMSSchemeXOR{
					HashAlg: tuple.HashAlg,
					KDF:     tuple.KDF,
				}),
		}, nil
	case tpm2.TPMAlgNull:
		return tpm2.TPMTKeyedHashScheme{
			Scheme: tpm2.TPMAlgNull,
		}, nil
	}
	return tpm2.TPMTKeyedHashScheme{}, fmt.Errorf("%w: %04x", ErrUnknownScheme, uint16(tuple.Scheme))
}
