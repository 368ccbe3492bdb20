package progress

import "github.com/pavelanni/codequest/internal/model"

// ProblemStates derives each catalog problem's status from the attempt
// history and merges the learner's marks. Problems absent from the catalog
// are ignored.
func ProblemStates(catalog []model.Problem, history []model.AttemptRecord, marks map[string]model.ProblemMark) []model.ProblemState {
	status := statusIndex(history)
	out := make([]model.ProblemState, 0, len(catalog))
	for _, prob := range catalog {
		st := model.ProblemState{
			ProblemID: prob.ID,
			Status:    status[prob.ID],
		}
		if st.Status == "" {
			st.Status = model.StatusUnsolved
		}
		if m, ok := marks[prob.ID]; ok {
			st.Starred = m.Starred
			st.Notes = m.Notes
		}
		out = append(out, st)
	}
	return out
}

// statusIndex folds the history into the best status seen per problem.
// Solved wins over any other record.
func statusIndex(history []model.AttemptRecord) map[string]model.ProblemStatus {
	idx := make(map[string]model.ProblemStatus, len(history))
	for _, rec := range history {
		switch rec.Outcome {
		case model.AttemptSolved:
			idx[rec.ProblemID] = model.StatusSolved
		case model.AttemptAttempted, model.AttemptFailed:
			if idx[rec.ProblemID] != model.StatusSolved {
				idx[rec.ProblemID] = model.StatusAttempted
			}
		}
	}
	return idx
}

// DeriveUnits groups the catalog into units by category, in order of first
// appearance, and computes each node's position on the progression path.
// A node past the first is locked until its predecessor is completed.
func DeriveUnits(catalog []model.Problem, history []model.AttemptRecord) []model.Unit {
	status := statusIndex(history)

	var units []model.Unit
	unitIdx := make(map[string]int)
	for _, prob := range catalog {
		i, ok := unitIdx[prob.Category]
		if !ok {
			i = len(units)
			unitIdx[prob.Category] = i
			units = append(units, model.Unit{Category: prob.Category})
		}

		st := status[prob.ID]
		if st == "" {
			st = model.StatusUnsolved
		}

		u := &units[i]
		state := model.NodeLocked
		if n := len(u.Nodes); n == 0 || u.Nodes[n-1].State == model.NodeCompleted {
			state = nodeStateFor(st)
		}
		if state == model.NodeCompleted {
			u.Completed++
		}
		u.Nodes = append(u.Nodes, model.LessonNode{
			ProblemID: prob.ID,
			Title:     prob.Title,
			Status:    st,
			State:     state,
		})
	}
	return units
}

func nodeStateFor(st model.ProblemStatus) model.NodeState {
	switch st {
	case model.StatusSolved:
		return model.NodeCompleted
	case model.StatusAttempted:
		return model.NodeCurrent
	default:
		return model.NodeAvailable
	}
}
