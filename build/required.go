package build

import (
	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/property"
)

// CheckRequired fails with errdef.ErrConstruction when a required member of
// eligible has no property in set. The missing names travel as "missing".
func CheckRequired(eligible *property.MemberSet, set *property.ResolvedSet) error {
	var missing []string
	for _, name := range eligible.Required() {
		if !set.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errdef.ErrConstruction.
			WithMsgf("required properties not resolved: %v", missing).
			WithData("missing", missing)
	}
	return nil
}
