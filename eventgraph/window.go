package eventgraph

import (
	"lidarpt/config"
	"lidarpt/model"
	"lidarpt/timeutil"
)

// eventWindow computes the feasible [earliest, latest] departure window for
// a candidate event grouping eventUser with others, walking the line's stop
// order to check that every pick-up can happen before its latest-start
// bound and every drop-off before its latest-arrival bound. ok is false when
// no window satisfies every member's constraints -- the caller must then
// discard this candidate grouping entirely (ported from original_source
// utils/helper/Helper.get_event_window).
func eventWindow(eventUser *model.SplitRequest, others map[int]*model.SplitRequest, isPickup bool, cfg config.PlanningConfig) (earliest, latest timeutil.Time, ok bool) {
	allUsers := make(map[int]*model.SplitRequest, len(others)+1)
	for id, sr := range others {
		allUsers[id] = sr
	}
	allUsers[eventUser.SplitID] = eventUser

	candByStop := map[int][]*model.SplitRequest{}
	for _, sr := range allUsers {
		candByStop[sr.PickUp.ID] = append(candByStop[sr.PickUp.ID], sr)
		candByStop[sr.DropOff.ID] = append(candByStop[sr.DropOff.ID], sr)
	}

	line := eventUser.Line
	keyList := append([]*model.Stop{}, line.Stops...)
	if eventUser.Direction() == 1 {
		reverseStops(keyList)
	}

	var splitStop *model.Stop
	var firstDropOffIdx int
	if isPickup {
		splitStop = eventUser.PickUp
		firstDropOffIdx = indexOfStop(keyList, splitStop.ID) + 1
	} else {
		splitStop = eventUser.DropOff
		firstDropOffIdx = indexOfStop(keyList, splitStop.ID)
	}
	keyListPick := keyList[:firstDropOffIdx]
	keyListDrop := keyList[firstDropOffIdx:]

	var currStop *model.Stop
	for _, s := range keyListPick {
		if _, ok := candByStop[s.ID]; ok {
			currStop = s
			break
		}
	}
	if currStop == nil {
		return 0, 0, false
	}

	currTime := timeutil.Zero
	latestTime, _ := timeutil.New(23, 59, 59)

	for _, key := range keyListPick {
		users, ok := candByStop[key.ID]
		if !ok {
			continue
		}
		duration := legDuration(currStop, key, cfg)
		currTime = currTime.Add(duration)
		for _, u := range users {
			if currTime.Before(u.EarliestStart) {
				currTime = u.EarliestStart
			}
		}
		for _, u := range users {
			if currTime.After(u.LatestStart) {
				return 0, 0, false
			}
		}
		currStop = key
		currTime = currTime.Add(cfg.TransferSeconds)
	}

	var remTravel int64
	var earlTime timeutil.Time
	if isPickup {
		earlTime = currTime.Sub(cfg.TransferSeconds)
		for _, u := range candByStop[eventUser.PickUp.ID] {
			if u.LatestStart.Before(latestTime) {
				latestTime = u.LatestStart
			}
		}
	} else {
		duration := legDuration(currStop, eventUser.DropOff, cfg)
		remTravel = -duration - cfg.TransferSeconds
		earlTime = currTime.Add(duration)
	}

	for _, key := range keyListDrop {
		users, ok := candByStop[key.ID]
		if !ok {
			continue
		}
		duration := legDuration(currStop, key, cfg)
		remTravel += duration
		currTime = currTime.Add(duration)
		for _, u := range users {
			possible := u.LatestArrival.Sub(remTravel + cfg.TransferSeconds)
			if possible.Before(latestTime) {
				latestTime = possible
			}
			if currTime.After(u.LatestArrival) {
				return 0, 0, false
			}
		}
		currStop = key
		currTime = currTime.Add(cfg.TransferSeconds)
		remTravel += cfg.TransferSeconds
	}

	if earlTime.After(latestTime) {
		return 0, 0, false
	}
	return earlTime, latestTime, true
}

func legDuration(a, b *model.Stop, cfg config.PlanningConfig) int64 {
	return timeutil.DistanceToDuration(a.DistanceKm(b, cfg.KmPerUnit), cfg.AverageKmh)
}

func indexOfStop(stops []*model.Stop, stopID int) int {
	for i, s := range stops {
		if s.ID == stopID {
			return i
		}
	}
	return -1
}
