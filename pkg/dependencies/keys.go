package dependencies

import (
	"regexp"
	"strings"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
	"github.com/simplysf/simply-package/pkg/packaging"
)

var installationKeyRegex = regexp.MustCompile(`^(\w+:\w+)(,\s*\w+:\w+)*`)

// ParseInstallationKeys builds the installation key map from "id:key"
// tokens. A token may hold several comma separated pairs. The id side may be
// a package alias, resolved through aliases, and must be a subscriber
// package version id.
func ParseInstallationKeys(tokens []string, aliases func(string) string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if !installationKeyRegex.MatchString(token) {
			return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidFormat,
				"installation key %q must have the format packageVersionId:installationKey", token)
		}
		for _, pair := range strings.Split(token, ",") {
			id, key, _ := strings.Cut(strings.TrimSpace(pair), ":")
			if aliases != nil {
				id = aliases(id)
			}
			if !packaging.IsSubscriberPackageVersionID(id) {
				return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidID, "invalid SubscriberPackageVersionId: %s", id)
			}
			keys[id] = key
		}
	}
	return keys, nil
}
