package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"chat-core/models"
)

// NoOtherUsers is shown in place of an empty member list.
const NoOtherUsers = "no other users"

// NormalizeMembers drops blanks and duplicates and sorts ids so that equal
// sets compare equal whatever order they were given in.
func NormalizeMembers(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MemberKey is the fixed-length identity of a normalized membership set.
func MemberKey(normalized []string) string {
	h := sha256.New()
	for _, id := range normalized {
		fmt.Fprintf(h, "%d:%s;", len(id), id)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DefaultRoomName names a room from its creator's point of view.
func DefaultRoomName(creatorID string, members []models.User) string {
	switch len(members) {
	case 0:
		return "Chat"
	case 1:
		return "Chat with " + members[0].Username
	case 2:
		for _, m := range members {
			if m.ID != creatorID {
				return "Chat with " + m.Username
			}
		}
	}
	return fmt.Sprintf("Group Chat (%d users)", len(members))
}
