package dtlsext

import "github.com/lanikai/dtlssrtp/srtp"

// KeyingMaterialExporter matches the single method this package needs off a
// completed DTLS connection: RFC 5705 keying material export. A *dtls.Conn
// satisfies this directly; tests pass a fake backed by a fixed byte slice.
type KeyingMaterialExporter interface {
	ExportKeyingMaterial(label string, context []byte, length int) ([]byte, error)
}

// ExportedSecretSource is an optional capability a KeyingMaterialExporter
// may additionally implement to report whether its handshake negotiated
// RFC 7627's extended_master_secret extension. DeriveSessionWithPolicy type
// -asserts for it; a conn that doesn't implement it is treated as unknown
// and the check is skipped rather than failed closed, since plenty of
// valid test doubles (and some real stacks) have no way to answer it.
type ExportedSecretSource interface {
	ExtendedMasterSecret() bool
}

// exporterLabel is the RFC 5764 §4.2 label passed to the handshake's PRF
// exporter.
const exporterLabel = "EXTRACTOR-dtls_srtp"

// layerSize returns the byte length of one key/salt layer's worth of
// exported material: client key, server key, client salt, server salt, in
// that order, per RFC 5764 §4.2. Grounded on peer_connection.go's
// writeKey/readKey/writeSalt/readSalt sequential split of
// dtlsConn.ExportKeyingMaterial("EXTRACTOR-dtls_srtp", nil, 2*keyLen+2*saltLen).
func layerSize(keyBytes, saltBytes int) int {
	return 2*keyBytes + 2*saltBytes
}

// DeriveKeyingMaterial exports keying material from conn for profile and
// splits it into a MasterKeyingMaterial. For an ordinary (non-double)
// profile this is one layer of client_key‖server_key‖client_salt‖server_salt.
// For a nested "double" AEAD profile (RFC 8723), the exporter produces two
// such layers back to back — inner first, then outer — and each of the four
// returned fields is the inner‖outer concatenation DeriveSession and
// Context.deriveGeneration expect.
func DeriveKeyingMaterial(conn KeyingMaterialExporter, profile srtp.ProtectionProfile, mki []byte) (*MasterKeyingMaterial, error) {
	keyBytes := profile.KeyBits / 8
	saltBytes := profile.SaltBits / 8
	layers := 1
	if profile.Double {
		layers = 2
	}

	total := layers * layerSize(keyBytes, saltBytes)
	material, err := conn.ExportKeyingMaterial(exporterLabel, nil, total)
	if err != nil {
		return nil, err
	}

	m := &MasterKeyingMaterial{MKI: mki}
	off := 0
	for i := 0; i < layers; i++ {
		clientKey := material[off : off+keyBytes]
		off += keyBytes
		serverKey := material[off : off+keyBytes]
		off += keyBytes
		clientSalt := material[off : off+saltBytes]
		off += saltBytes
		serverSalt := material[off : off+saltBytes]
		off += saltBytes

		m.ClientWriteKey = append(m.ClientWriteKey, clientKey...)
		m.ServerWriteKey = append(m.ServerWriteKey, serverKey...)
		m.ClientWriteSalt = append(m.ClientWriteSalt, clientSalt...)
		m.ServerWriteSalt = append(m.ServerWriteSalt, serverSalt...)
	}

	return m, nil
}

// MasterKeyingMaterial re-exports srtp.MasterKeyingMaterial so callers only
// need to import this package to go from a live handshake to a Session.
type MasterKeyingMaterial = srtp.MasterKeyingMaterial

// DeriveSession exports keying material from conn and builds a ready-to-use
// srtp.Session for role, in one call, applying DefaultPolicy().
func DeriveSession(conn KeyingMaterialExporter, profile srtp.ProtectionProfile, mki []byte, role srtp.Role) (*srtp.Session, error) {
	return DeriveSessionWithPolicy(conn, profile, mki, role, DefaultPolicy())
}

// DeriveSessionWithPolicy is DeriveSession with an explicit Policy. When
// policy.RequireExtendedMasterSecret is set and conn implements
// ExportedSecretSource, a handshake that didn't negotiate the extension
// fails closed with ErrMissingExtendedMasterSecret.
func DeriveSessionWithPolicy(conn KeyingMaterialExporter, profile srtp.ProtectionProfile, mki []byte, role srtp.Role, policy Policy) (*srtp.Session, error) {
	if policy.RequireExtendedMasterSecret {
		if src, ok := conn.(ExportedSecretSource); ok && !src.ExtendedMasterSecret() {
			return nil, ErrMissingExtendedMasterSecret
		}
	}

	m, err := DeriveKeyingMaterial(conn, profile, mki)
	if err != nil {
		return nil, err
	}
	return srtp.DeriveSession(profile, m, role)
}
