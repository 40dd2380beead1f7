package constants

// Protocol constants for the 3.3.5a (build 12340) login and world protocols.
//
// Login server packets are little-endian with a one-byte opcode.
// World server packets carry a big-endian size and a little-endian opcode;
// after CMSG_AUTH_SESSION only the headers are ARC4 encrypted, bodies stay plain.

// Login server opcodes
const (
	OpcodeAuthLogonChallenge = 0x00
	OpcodeAuthLogonProof     = 0x01
	OpcodeRealmList          = 0x10
)

// Login server protocol fields
const (
	// AuthProtocolVersion is the protocol byte sent in the logon challenge.
	AuthProtocolVersion = 8

	// ChallengeFixedSize is the challenge request size excluding the username and
	// the 4-byte opcode/version/size prefix.
	ChallengeFixedSize = 30

	// AuthStatusSuccess is the status byte of a successful challenge or proof.
	AuthStatusSuccess = 0x00

	// ChallengeCRCSaltSize is the size of the version-check salt in the challenge response.
	ChallengeCRCSaltSize = 16
)

// SRP6 sizes
const (
	// SRPEphemeralSize is the byte size of A, B and the exported shared secret S.
	SRPEphemeralSize = 32

	// SRPSaltSize is the byte size of the account salt.
	SRPSaltSize = 32

	// SRPPrivateKeySize is the byte size of the client private exponent a.
	SRPPrivateKeySize = 19

	// SRPMultiplier is the SRP6 k parameter.
	SRPMultiplier = 3

	// SessionKeySize is the interleaved session key length (2 x SHA1).
	SessionKeySize = 40
)

// World server opcodes
const (
	CMsgCharEnum         = 0x037
	SMsgCharEnum         = 0x03B
	CMsgPing             = 0x1DC
	SMsgPong             = 0x1DD
	SMsgAuthChallenge    = 0x1EC
	CMsgAuthSession      = 0x1ED
	SMsgAuthResponse     = 0x1EE
	SMsgAddonInfo        = 0x2EF
	SMsgClientCacheVer   = 0x4AB
	SMsgTutorialFlags    = 0x0FD
	SMsgAccountDataTimes = 0x209
	SMsgWardenData       = 0x2E6
)

// World server protocol fields
const (
	// AuthResponseOK is the SMSG_AUTH_RESPONSE status for a successful login.
	AuthResponseOK = 12

	// AuthResponseWaitQueue is the status sent when the realm queues the account.
	AuthResponseWaitQueue = 27

	// ClientHeaderSize is the outbound header: 2-byte BE size + 4-byte opcode.
	ClientHeaderSize = 6

	// ServerHeaderSize is the inbound header: 2-byte BE size + 2-byte opcode.
	ServerHeaderSize = 4

	// ServerLargeHeaderSize is the inbound header when the size needs 23 bits.
	ServerLargeHeaderSize = 5

	// ServerLargeHeaderFlag marks a large header in the first (decrypted) byte.
	ServerLargeHeaderFlag = 0x80

	// AuthSessionFixedSize is the CMSG_AUTH_SESSION header size value excluding
	// the account name and add-on bytes (opcode included).
	AuthSessionFixedSize = 62

	// CipherDropBytes is the ARC4 keystream discarded per direction after keying.
	CipherDropBytes = 1024

	// AuthChallengeMarker is the leading uint32 of SMSG_AUTH_CHALLENGE.
	AuthChallengeMarker = 1
)

// Character enumeration layout
const (
	// CharEquipmentSlots is the number of equipment entries per character.
	CharEquipmentSlots = 23

	// CharEquipmentEntrySize is displayId(4) + inventoryType(1) + enchantAura(4).
	CharEquipmentEntrySize = 9
)
