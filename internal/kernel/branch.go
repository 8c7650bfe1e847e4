package kernel

import "github.com/broomva/aios/pkg/protocol"

// CreateBranch forks newID from fromBranch (default "main") at forkSequence
// (default fromBranch's current head). Fails if newID already exists, the
// source branch is missing or merged, or forkSequence exceeds the source's
// head sequence. Emits BranchCreated on the NEW branch at its sequence 1
// (spec §4.1 "create_branch").
func (k *Kernel) CreateBranch(id protocol.SessionID, newID protocol.BranchID, fromBranch protocol.BranchID, forkSequence *protocol.SeqNo) (protocol.BranchInfo, error) {
	session, err := k.Registry.Get(id)
	if err != nil {
		return protocol.BranchInfo{}, err
	}
	if fromBranch == "" {
		fromBranch = protocol.MainBranch
	}

	session.Mu.Lock()
	if _, exists := session.Branches[newID]; exists {
		session.Mu.Unlock()
		return protocol.BranchInfo{}, wrapf(protocol.ErrBranchExists, "%s", newID)
	}
	source, ok := session.Branches[fromBranch]
	if !ok {
		session.Mu.Unlock()
		return protocol.BranchInfo{}, wrapf(protocol.ErrBranchNotFound, "%s", fromBranch)
	}
	if source.Info.MergedInto != nil {
		session.Mu.Unlock()
		return protocol.BranchInfo{}, wrapf(protocol.ErrBranchReadOnly, "%s", fromBranch)
	}

	fork := source.Info.HeadSequence
	if forkSequence != nil {
		fork = *forkSequence
	}
	if fork > source.Info.HeadSequence {
		session.Mu.Unlock()
		return protocol.BranchInfo{}, wrapf(protocol.ErrForkPastHead, "fork=%d head=%d", fork, source.Info.HeadSequence)
	}

	parent := fromBranch
	session.Branches[newID] = &BranchState{
		Info: protocol.BranchInfo{
			BranchID:     newID,
			ParentBranch: &parent,
			ForkSequence: fork,
			HeadSequence: 0,
		},
		NextSequence: 1,
	}
	session.Mu.Unlock()

	if _, err := k.emit(session, newID, protocol.BranchCreated{
		NewBranchID:  newID,
		ForkPointSeq: fork,
		Name:         string(newID),
	}); err != nil {
		return protocol.BranchInfo{}, err
	}

	session.Mu.Lock()
	info := session.Branches[newID].Info
	session.Mu.Unlock()
	return info, nil
}

// MergeBranch marks source as merged into target and emits BranchMerged on
// the TARGET branch. Fails if source == target, source is main, or either
// side is missing or already merged (spec §4.1 "merge_branch").
func (k *Kernel) MergeBranch(id protocol.SessionID, source, target protocol.BranchID) (protocol.BranchMergeResult, error) {
	session, err := k.Registry.Get(id)
	if err != nil {
		return protocol.BranchMergeResult{}, err
	}
	if target == "" {
		target = protocol.MainBranch
	}
	if source == target {
		return protocol.BranchMergeResult{}, wrapf(protocol.ErrMergeSameBranch, "%s", source)
	}
	if source == protocol.MainBranch {
		return protocol.BranchMergeResult{}, wrapf(protocol.ErrMergeSourceIsMain, "%s", source)
	}

	session.Mu.Lock()
	sourceBranch, ok := session.Branches[source]
	if !ok {
		session.Mu.Unlock()
		return protocol.BranchMergeResult{}, wrapf(protocol.ErrBranchNotFound, "%s", source)
	}
	targetBranch, ok := session.Branches[target]
	if !ok {
		session.Mu.Unlock()
		return protocol.BranchMergeResult{}, wrapf(protocol.ErrBranchNotFound, "%s", target)
	}
	if sourceBranch.Info.MergedInto != nil {
		session.Mu.Unlock()
		return protocol.BranchMergeResult{}, wrapf(protocol.ErrAlreadyMerged, "%s", source)
	}
	sourceHead := sourceBranch.Info.HeadSequence
	session.Mu.Unlock()

	if _, err := k.emit(session, target, protocol.BranchMerged{
		SourceBranchID: source,
		MergeSeq:       sourceHead,
	}); err != nil {
		return protocol.BranchMergeResult{}, err
	}

	session.Mu.Lock()
	t := target
	session.Branches[source].Info.MergedInto = &t
	result := protocol.BranchMergeResult{
		SourceBranch:       source,
		TargetBranch:       target,
		SourceHeadSequence: sourceHead,
		TargetHeadSequence: session.Branches[target].Info.HeadSequence,
	}
	session.Mu.Unlock()

	return result, nil
}
