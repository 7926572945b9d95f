package benchmark

import (
	"errors"
	"fmt"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"
)

// Status is a TPM response code.
type Status uint32

const (
	StatusSuccess Status = 0x0000
	// StatusValueOutOfRange is TPM_RC_VALUE reported for parameter 2 of
	// TPM2_CreateLoaded. Some tuples only hit it at creation time.
	StatusValueOutOfRange Status = 0x02c4
)

func (s Status) String() string {
	return fmt.Sprintf("%04x", uint32(s))
}

// StatusOf extracts the TPM response code carried by err. The second return
// is false when err did not come from the TPM, e.g. a transport or
// marshalling failure.
func StatusOf(err error) (Status, bool) {
	if err == nil {
		return StatusSuccess, true
	}
	var rc tpm2.TPMRC
	if errors.As(err, &rc) {
		return Status(rc), true
	}
	return 0, false
}

// Object is what TPM2_CreateLoaded returns. A new value is produced for every
// call.
type Object struct {
	Handle  tpm2.TPMHandle
	Name    tpm2.TPM2BName
	Private tpm2.TPM2BPrivate
	Public  tpm2.TPM2BPublic
}

// Commander is the slice of the TPM command set the sweep needs.
type Commander interface {
	// CreateParent creates a storage primary key of the given type under
	// the owner hierarchy.
	CreateParent(keyType tpm2.TPMAlgID) (*tpm2.AuthHandle, error)
	// Validate asks the TPM whether it supports the descriptor's parameters
	// without creating an object.
	Validate(public *tpm2.TPMTPublic) error
	CreateLoaded(parent tpm2.AuthHandle, sensitive tpm2.TPM2BSensitiveCreate, public *tpm2.TPMTPublic) (*Object, error)
	Flush(h tpm2.TPMHandle) error
}

// TPM implements Commander on a go-tpm transport.
type TPM struct {
	tpm transport.TPM
}

func NewTPM(tpm transport.TPM) *TPM {
	return &TPM{tpm: tpm}
}

func (t *TPM) CreateParent(keyType tpm2.TPMAlgID) (*tpm2.AuthHandle, error) {
	var template tpm2.TPMTPublic
	switch keyType {
	case tpm2.TPMAlgRSA:
		template = tpm2.RSASRKTemplate
	case tpm2.TPMAlgECC:
		template = tpm2.ECCSRKTemplate
	default:
		return nil, fmt.Errorf("unsupported parent key type %v", keyType)
	}

	srk := tpm2.CreatePrimary{
		PrimaryHandle: tpm2.TPMRHOwner,
		InSensitive:   emptySensitive(),
		InPublic:      tpm2.New2B(template),
	}

	rsp, err := srk.Execute(t.tpm)
	if err != nil {
		return nil, fmt.Errorf("failed creating primary key: %w", err)
	}

	return &tpm2.AuthHandle{
		Handle: rsp.ObjectHandle,
		Name:   rsp.Name,
		Auth:   tpm2.PasswordAuth(nil),
	}, nil
}

func (t *TPM) Validate(public *tpm2.TPMTPublic) error {
	testParms := tpm2.TestParms{
		Parameters: tpm2.TPMTPublicParms{
			Type:       public.Type,
			Parameters: public.Parameters,
		},
	}
	_, err := testParms.Execute(t.tpm)
	return err
}

func (t *TPM) CreateLoaded(parent tpm2.AuthHandle, sensitive tpm2.TPM2BSensitiveCreate, public *tpm2.TPMTPublic) (*Object, error) {
	createLoaded := tpm2.CreateLoaded{
		ParentHandle: parent,
		InSensitive:  sensitive,
		InPublic:     tpm2.New2BTemplate(public),
	}
	rsp, err := createLoaded.Execute(t.tpm)
	if err != nil {
		return nil, err
	}
	return &Object{
		Handle:  rsp.ObjectHandle,
		Name:    rsp.Name,
		Private: rsp.OutPrivate,
		Public:  rsp.OutPublic,
	}, nil
}

func (t *TPM) Flush(h tpm2.TPMHandle) error {
	return flushHandle(t.tpm, h)
}

// shadow the unexported interface from go-tpm
type handle interface {
	HandleValue() uint32
	KnownName() *tpm2.TPM2BName
}

func flushHandle(tpm transport.TPM, h handle) error {
	flush := tpm2.FlushContext{FlushHandle: h}
	_, err := flush.Execute(tpm)
	return err
}

func emptySensitive() tpm2.TPM2BSensitiveCreate {
	return tpm2.TPM2BSensitiveCreate{
		Sensitive: &tpm2.TPMSSensitiveCreate{
			UserAuth: tpm2.TPM2BAuth{
				Buffer: []byte(nil),
			},
		},
	}
}
