package benchmark

import (
	"fmt"
	"net"
	"strings"

	"github.com/google/go-tpm/tpm2/transport"
	"github.com/google/go-tpm/tpm2/transport/linuxtpm"
)

// OpenTPM opens the TPM at path:
//   - "": the platform default TPM
//   - "/dev/...": a Linux TPM character device, e.g. /dev/tpmrm0
//   - "host:port": a TCP connection to a simulator command port
func OpenTPM(path string) (transport.TPMCloser, error) {
	switch {
	case path == "":
		return transport.OpenTPM()
	case strings.HasPrefix(path, "/dev/"):
		return linuxtpm.Open(path)
	default:
		conn, err := net.Dial("tcp", path)
		if err != nil {
			return nil, fmt.Errorf("failed connecting to %s: %w", path, err)
		}
		return transport.FromReadWriteCloser(conn), nil
	}
}
