package task

import (
	"sort"

	"github.com/google/uuid"
)

type BucketKind string

const (
	BucketPersonal BucketKind = "personal"
	BucketGroup    BucketKind = "group"
)

// Bucket is one section of the current-tasks view: the personal list or one group's list.
// GroupID and GroupName are zero for the personal bucket.
type Bucket struct {
	Kind      BucketKind `json:"kind"`
	GroupID   uuid.UUID  `json:"group_id,omitempty"`
	GroupName string     `json:"group_name,omitempty"`
	Tasks     []*Task    `json:"tasks"`
}

func PersonalBucket(tasks []*Task) Bucket {
	return Bucket{Kind: BucketPersonal, Tasks: nonNil(tasks)}
}

func GroupBucket(groupID uuid.UUID, groupName string, tasks []*Task) Bucket {
	return Bucket{Kind: BucketGroup, GroupID: groupID, GroupName: groupName, Tasks: nonNil(tasks)}
}

func (b Bucket) IsPersonal() bool {
	return b.Kind == BucketPersonal
}

// SortByCreatedDesc orders tasks newest first, ties broken by id for a stable listing.
func SortByCreatedDesc(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].UUID.String() < tasks[j].UUID.String()
	})
}

// SortByCompletedDesc orders completed tasks by completion time, newest first.
func SortByCompletedDesc(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ci, cj := tasks[i].CompletedAt, tasks[j].CompletedAt
		switch {
		case ci == nil && cj == nil:
			return false
		case ci == nil:
			return false
		case cj == nil:
			return true
		}
		if !ci.Equal(*cj) {
			return ci.After(*cj)
		}
		return tasks[i].UUID.String() < tasks[j].UUID.String()
	})
}

func nonNil(tasks []*Task) []*Task {
	if tasks == nil {
		return []*Task{}
	}
	return tasks
}
