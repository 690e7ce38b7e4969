package sanitizer

import "calbook/pkg/model"

// NormalizeUsers trims ids, lowercases emails and drops repeated ids.
// Attendee emails are matched exactly in storage.
func NormalizeUsers(users []model.UserEmail) []model.UserEmail {
	seen := make(map[string]struct{}, len(users))
	out := make([]model.UserEmail, 0, len(users))
	for _, u := range users {
		u.ID = TrimAndNormalize(u.ID)
		u.Email = NormalizeEmail(u.Email)
		if u.ID != "" {
			if _, ok := seen[u.ID]; ok {
				continue
			}
			seen[u.ID] = struct{}{}
		}
		out = append(out, u)
	}
	return out
}

// NormalizeLocation cleans a booking location. Links are normalized as
// meeting URLs, phone numbers become E.164 when they parse, and anything
// else has its whitespace collapsed.
func NormalizeLocation(location string) string {
	location = TrimAndNormalize(location)
	switch {
	case looksLikeURL(location):
		return NormalizeMeetingURL(location)
	case looksLikePhone(location):
		if phone := NormalizePhone(location); phone != "" {
			return phone
		}
	}
	return location
}

// NormalizeLocationUpdate normalizes update in place.
func NormalizeLocationUpdate(update *model.LocationUpdate) {
	if update == nil {
		return
	}
	update.Location = NormalizeLocation(update.Location)
	for i := range update.ReferencesToCreate {
		ref := &update.ReferencesToCreate[i]
		ref.Type = TrimAndNormalize(ref.Type)
		ref.UID = TrimAndNormalize(ref.UID)
		if ref.MeetingURL != "" {
			ref.MeetingURL = NormalizeMeetingURL(ref.MeetingURL)
		}
	}
}
