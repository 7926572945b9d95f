package benchmark

import (
	"time"

	"github.com/google/go-tpm/tpm2"
)

// fakeTPM is a scripted Commander. validate and create decide the outcome of
// each call; nil hooks accept and succeed.
type fakeTPM struct {
	validate func(call int, public *tpm2.TPMTPublic) error
	create   func(call int, public *tpm2.TPMTPublic) error
	parent   error

	validated []tpm2.TPMTPublic
	created   []tpm2.TPMTPublic
	flushed   []tpm2.TPMHandle
	parents   int
	next      tpm2.TPMHandle
}

const fakeParentHandle tpm2.TPMHandle = 0x80000000

func (f *fakeTPM) CreateParent(keyType tpm2.TPMAlgID) (*tpm2.AuthHandle, error) {
	if f.parent != nil {
		return nil, f.parent
	}
	f.parents++
	return &tpm2.AuthHandle{Handle: fakeParentHandle, Auth: tpm2.PasswordAuth(nil)}, nil
}

func (f *fakeTPM) Validate(public *tpm2.TPMTPublic) error {
	f.validated = append(f.validated, *public)
	if f.validate != nil {
		return f.validate(len(f.validated)-1, public)
	}
	return nil
}

func (f *fakeTPM) CreateLoaded(parent tpm2.AuthHandle, sensitive tpm2.TPM2BSensitiveCreate, public *tpm2.TPMTPublic) (*Object, error) {
	f.created = append(f.created, *public)
	if f.create != nil {
		if err := f.create(len(f.created)-1, public); err != nil {
			return nil, err
		}
	}
	f.next++
	return &Object{Handle: 0x80000001 + f.next}, nil
}

func (f *fakeTPM) Flush(h tpm2.TPMHandle) error {
	f.flushed = append(f.flushed, h)
	return nil
}

// rcAt returns a create hook failing the given calls with rc.
func rcAt(rc tpm2.TPMRC, calls ...int) func(int, *tpm2.TPMTPublic) error {
	return func(call int, _ *tpm2.TPMTPublic) error {
		for _, c := range calls {
			if c == call {
				return rc
			}
		}
		return nil
	}
}

// fakeClock returns the next step added to the previous instant on every
// call, cycling through steps.
func fakeClock(steps ...time.Duration) func() time.Time {
	now := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	i := 0
	return func() time.Time {
		if len(steps) > 0 {
			now = now.Add(steps[i%len(steps)])
			i++
		}
		return now
	}
}
