package world

import (
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
)

var opcodeNames = map[uint16]string{
	constants.CMsgCharEnum:         "CMSG_CHAR_ENUM",
	constants.SMsgCharEnum:         "SMSG_CHAR_ENUM",
	constants.CMsgPing:             "CMSG_PING",
	constants.SMsgPong:             "SMSG_PONG",
	constants.SMsgAuthChallenge:    "SMSG_AUTH_CHALLENGE",
	constants.CMsgAuthSession:      "CMSG_AUTH_SESSION",
	constants.SMsgAuthResponse:     "SMSG_AUTH_RESPONSE",
	constants.SMsgAddonInfo:        "SMSG_ADDON_INFO",
	constants.SMsgClientCacheVer:   "SMSG_CLIENTCACHE_VERSION",
	constants.SMsgTutorialFlags:    "SMSG_TUTORIAL_FLAGS",
	constants.SMsgAccountDataTimes: "SMSG_ACCOUNT_DATA_TIMES",
	constants.SMsgWardenData:       "SMSG_WARDEN_DATA",
}

// OpcodeName returns the symbolic name of a world opcode, or its hex value.
func OpcodeName(op uint16) string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("0x%03X", op)
}
