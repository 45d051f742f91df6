package services

// ProjectStore persists the selected project id. An empty id means no
// project is selected and listings are unscoped.
type ProjectStore struct {
	store BoltDB
}

// NewProjectStore creates the active-project accessor.
func NewProjectStore(store BoltDB) ProjectStore {
	return ProjectStore{store: store}
}

// ActiveProject returns the persisted project id, or an empty string.
func (p ProjectStore) ActiveProject() string {
	id, err := p.store.State(StateActiveProject)
	if err != nil {
		return ""
	}
	return id
}

// SetActiveProject overwrites the persisted project id. Passing an empty id
// clears the selection.
func (p ProjectStore) SetActiveProject(id string) error {
	if id == "" {
		return p.store.DeleteState(StateActiveProject)
	}
	return p.store.SetState(StateActiveProject, id)
}
