// Package tags implements the tagging policy shared by every taggable resource.
package tags

// Common tag keys present on every taggable resource.
const (
	KeyProject     = "Project"
	KeyEnvironment = "Environment"
	KeyManagedBy   = "ManagedBy"
	KeyAppName     = "AppName"
	KeyOwner       = "Owner"
	KeyCostCenter  = "CostCenter"
	KeyName        = "Name"
)

// ManagedBy is the value of the ManagedBy tag.
const ManagedBy = "wetwire-fargate"

// CommonKeys lists the six keys Common always sets, in a stable order.
var CommonKeys = []string{KeyProject, KeyEnvironment, KeyManagedBy, KeyAppName, KeyOwner, KeyCostCenter}

// TagSet maps tag keys to values.
type TagSet map[string]string

// Inputs carries the configurable tag values.
type Inputs struct {
	Project     string
	Environment string
	AppName     string
	Owner       string
	CostCenter  string
}

// Common returns the common tag set.
func Common(in Inputs) TagSet {
	return TagSet{
		KeyProject:     in.Project,
		KeyEnvironment: in.Environment,
		KeyManagedBy:   ManagedBy,
		KeyAppName:     in.AppName,
		KeyOwner:       in.Owner,
		KeyCostCenter:  in.CostCenter,
	}
}

// WithName returns a copy of ts with the Name tag set.
func WithName(ts TagSet, name string) TagSet {
	out := ts.Clone()
	out[KeyName] = name
	return out
}

// Clone returns a copy of the tag set. A nil set clones to an empty one.
func (ts TagSet) Clone() TagSet {
	out := make(TagSet, len(ts)+1)
	for k, v := range ts {
		out[k] = v
	}
	return out
}

// HasCommon reports whether ts carries every common key.
func (ts TagSet) HasCommon() bool {
	for _, k := range CommonKeys {
		if _, ok := ts[k]; !ok {
			return false
		}
	}
	return true
}
