package models

// All returns every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&ClubInfo{}, &ClubDoc{}, &Group{}, &Member{}, &Coach{},
		&Competition{}, &Result{}, &CoachSession{}, &MemberSession{}, &CommLog{},
	}
}
