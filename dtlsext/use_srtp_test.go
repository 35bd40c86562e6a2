package dtlsext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lanikai/dtlssrtp/srtp"
)

// TestExtensionRoundTrip_ClientOffer is scenario S6's offer half: a client
// offers three profiles with no MKI, and the server selects its own most
// preferred mutual profile from the offer.
func TestExtensionRoundTrip_ClientOffer(t *testing.T) {
	offered := []srtp.ProfileID{
		srtp.ProfileAES128CMHMACSHA1_80,
		srtp.ProfileAEADAES128GCM,
		srtp.ProfileAEADAES256GCM,
	}

	body, err := BuildClientExtension(offered, nil)
	require.NoError(t, err)

	data, err := ParseClientExtension(body, []srtp.ProfileID{srtp.ProfileAEADAES128GCM}, false)
	require.NoError(t, err)
	require.Equal(t, []srtp.ProfileID{srtp.ProfileAEADAES128GCM}, data.Profiles)
	require.Empty(t, data.MKI)
}

// TestParseClientExtension_NoMutualProfile checks that a server with no
// profile overlapping the client's offer gets ErrNoMutualProfile, not a
// silently wrong selection.
func TestParseClientExtension_NoMutualProfile(t *testing.T) {
	body, err := BuildClientExtension([]srtp.ProfileID{srtp.ProfileAES128CMHMACSHA1_80}, nil)
	require.NoError(t, err)

	_, err = ParseClientExtension(body, []srtp.ProfileID{srtp.ProfileAEADAES256GCM}, false)
	require.ErrorIs(t, err, ErrNoMutualProfile)
}

// TestParseClientExtension_ForceDisableMKI checks that a server policy of
// DisableServerMKI strips an offered MKI from the result even though the
// client sent one.
func TestParseClientExtension_ForceDisableMKI(t *testing.T) {
	mki := []byte{0x01, 0x02}
	body, err := BuildClientExtension([]srtp.ProfileID{srtp.ProfileAEADAES128GCM}, mki)
	require.NoError(t, err)

	data, err := ParseClientExtension(body, []srtp.ProfileID{srtp.ProfileAEADAES128GCM}, true)
	require.NoError(t, err)
	require.Empty(t, data.MKI)
}

// TestSelectProfile_ServerPreference is scenario S6: client offers
// [0x0001, 0x0007, 0x0008], server supports [0x0008, 0x0001] in that
// preference order, and must select 0x0008.
func TestSelectProfile_ServerPreference(t *testing.T) {
	offered := []srtp.ProfileID{
		srtp.ProfileAES128CMHMACSHA1_80,
		srtp.ProfileAEADAES128GCM,
		srtp.ProfileAEADAES256GCM,
	}
	serverSupported := []srtp.ProfileID{
		srtp.ProfileAEADAES256GCM,
		srtp.ProfileAES128CMHMACSHA1_80,
	}

	selected, err := SelectProfile(offered, serverSupported)
	require.NoError(t, err)
	require.Equal(t, srtp.ProfileAEADAES256GCM, selected)
}

func TestSelectProfile_NoMutual(t *testing.T) {
	_, err := SelectProfile(
		[]srtp.ProfileID{srtp.ProfileAES128CMHMACSHA1_80},
		[]srtp.ProfileID{srtp.ProfileAEADAES256GCM},
	)
	require.ErrorIs(t, err, ErrNoMutualProfile)
}

// TestParseServerExtension_RejectsMultipleProfiles is scenario S6's
// negative case: a server echoing two profiles is a fatal negotiation
// error, not an ambiguous choice for the client to resolve.
func TestParseServerExtension_RejectsMultipleProfiles(t *testing.T) {
	offered := []srtp.ProfileID{srtp.ProfileAEADAES256GCM, srtp.ProfileAES128CMHMACSHA1_80}
	body, err := marshalUseSRTP(offered, nil)
	require.NoError(t, err)

	_, err = ParseServerExtension(body, offered, nil)
	require.ErrorIs(t, err, ErrInvalidExtension)
}

// TestParseServerExtension_RejectsProfileNotOffered guards against a server
// echoing a profile the client never offered.
func TestParseServerExtension_RejectsProfileNotOffered(t *testing.T) {
	body, err := marshalUseSRTP([]srtp.ProfileID{srtp.ProfileAEADAES256GCM}, nil)
	require.NoError(t, err)

	_, err = ParseServerExtension(body, []srtp.ProfileID{srtp.ProfileAES128CMHMACSHA1_80}, nil)
	require.ErrorIs(t, err, ErrInvalidExtension)
}

func TestExtensionRoundTrip_WithMKI(t *testing.T) {
	mki := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	body, err := BuildServerExtension(srtp.ProfileAEADAES128GCM, mki)
	require.NoError(t, err)

	data, err := ParseServerExtension(body, []srtp.ProfileID{srtp.ProfileAEADAES128GCM}, mki)
	require.NoError(t, err)
	require.Equal(t, []srtp.ProfileID{srtp.ProfileAEADAES128GCM}, data.Profiles)
	require.Equal(t, mki, data.MKI)
}

// TestParseServerExtension_MkiMismatch checks that a server echoing a
// different MKI than the client offered is rejected rather than silently
// accepted.
func TestParseServerExtension_MkiMismatch(t *testing.T) {
	body, err := BuildServerExtension(srtp.ProfileAEADAES128GCM, []byte{0xAA})
	require.NoError(t, err)

	_, err = ParseServerExtension(body, []srtp.ProfileID{srtp.ProfileAEADAES128GCM}, []byte{0xBB})
	require.ErrorIs(t, err, ErrMkiMismatch)
}

func TestParseClientExtension_TruncatedIsInvalid(t *testing.T) {
	_, err := ParseClientExtension([]byte{0x00, 0x02, 0x00}, []srtp.ProfileID{srtp.ProfileAEADAES128GCM}, false)
	require.ErrorIs(t, err, ErrInvalidExtension)
}

func TestParseClientExtension_EmptyProfileListIsInvalid(t *testing.T) {
	body, err := marshalUseSRTP(nil, nil)
	require.NoError(t, err)
	_, err = ParseClientExtension(body, []srtp.ProfileID{srtp.ProfileAEADAES128GCM}, false)
	require.ErrorIs(t, err, ErrInvalidExtension)
}

// TestBuildClientExtensionWithPolicy_GeneratesMKI covers the client-side
// half of Policy.MaxGeneratedMKILen: given no caller-supplied MKI, the
// extension carries a freshly generated one of the configured length.
func TestBuildClientExtensionWithPolicy_GeneratesMKI(t *testing.T) {
	profiles := []srtp.ProfileID{srtp.ProfileAEADAES128GCM}
	policy := Policy{MaxGeneratedMKILen: 6}

	body, mki, err := BuildClientExtensionWithPolicy(profiles, nil, fakeRandomSourceForExtension{}, policy)
	require.NoError(t, err)
	require.Len(t, mki, 6)

	data, err := parseUseSRTP(body)
	require.NoError(t, err)
	require.Equal(t, mki, data.MKI)
}

type fakeRandomSourceForExtension struct{}

func (fakeRandomSourceForExtension) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(0xF0 + i)
	}
	return len(p), nil
}
