// Package pbp holds the play-by-play action taxonomy as a flat lookup table.
//
// Action types and subtypes are the values observed in NBA play-by-play feeds.
// Feed values sometimes carry trailing whitespace and inconsistent casing, so
// every lookup is normalised first.
package pbp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownAction  = errors.New("pbp: unknown action type")
	ErrUnknownSubType = errors.New("pbp: unknown subtype")
)

// ActionType is a top-level play-by-play action.
type ActionType string

const (
	Period        ActionType = "Period"
	JumpBall      ActionType = "Jump Ball"
	MadeShot      ActionType = "Made Shot"
	MissedShot    ActionType = "Missed Shot"
	Rebound       ActionType = "Rebound"
	Foul          ActionType = "Foul"
	Turnover      ActionType = "Turnover"
	Timeout       ActionType = "Timeout"
	Substitution  ActionType = "Substitution"
	FreeThrow     ActionType = "Free Throw"
	InstantReplay ActionType = "Instant Replay"
	Violation     ActionType = "Violation"
	Ejection      ActionType = "Ejection"
)

// Action is a classified (type, subtype) pair. SubType is empty when the feed
// carried none.
type Action struct {
	Type    ActionType `json:"type"`
	SubType string     `json:"sub_type,omitempty"`
}

// IsCoachChallenge reports whether the action came out of a coach's challenge.
func (a Action) IsCoachChallenge() bool {
	return strings.Contains(a.SubType, "Coach Challenge")
}

func (a Action) String() string {
	if a.SubType == "" {
		return string(a.Type)
	}
	return fmt.Sprintf("%s: %s", a.Type, a.SubType)
}

var shotTypes = []string{
	"Driving Layup Shot", "Driving Finger Roll Layup Shot", "Alley Oop Dunk Shot",
	"Running Layup Shot", "Jump Shot", "Pullup Jump shot", "Driving Floating Bank Jump Shot",
	"Fadeaway Jump Shot", "Cutting Dunk Shot", "Running Reverse Layup Shot",
	"Driving Floating Jump Shot", "Cutting Finger Roll Layup Shot", "Cutting Layup Shot",
	"Turnaround Fadeaway shot", "Dunk Shot", "Step Back Jump shot", "Putback Layup Shot",
	"Running Jump Shot", "Fadeaway Bank shot", "Tip Dunk Shot", "Layup Shot",
	"Running Alley Oop Dunk Shot", "Floating Jump shot", "Driving Hook Shot", "Tip Layup Shot",
	"Jump Bank Shot", "Running Pull-Up Jump Shot", "Driving Dunk Shot",
	"Driving Reverse Layup Shot", "Running Dunk Shot", "Putback Dunk Shot",
	"Turnaround Jump Shot", "Reverse Layup Shot", "Turnaround Hook Shot",
	"Turnaround Fadeaway Bank Jump Shot", "Hook Shot", "Driving Bank Hook Shot",
	"Turnaround Bank Hook Shot", "Reverse Dunk Shot", "Turnaround Bank shot",
	"Alley Oop Layup shot", "Running Finger Roll Layup Shot", "Step Back Bank Jump Shot",
	"Hook Bank Shot", "Running Alley Oop Layup Shot", "Finger Roll Layup Shot",
	"Driving Reverse Dunk Shot", "Running Reverse Dunk Shot",
}

// subTypes is the lookup table, in declaration order.
var subTypes = []struct {
	action   ActionType
	subTypes []string
}{
	{Period, []string{"Start", "End"}},
	{JumpBall, []string{"Coach Challenge", "Other"}},
	{MadeShot, shotTypes},
	{MissedShot, shotTypes},
	{Rebound, []string{"Unknown", "Normal Rebound", "Dead Ball Rebound"}},
	{Foul, []string{
		"Personal", "Loose Ball", "Shooting", "Offensive", "Personal Take",
		"Defense 3 Second", "Offensive Charge", "Double Technical", "Flagrant Type 1",
		"Technical", "Away From Play", "Flagrant Type 2", "Delay Technical", "Clear Path",
		"Double Personal", "Hanging Technical", "Excess Timeout Technical",
		"Non-Unsportsmanlike Technical", "Too Many Players Technical",
		"Transition Take", "Flopping", "Bench",
	}},
	{Turnover, []string{
		"Lost Ball", "Offensive Foul Turnover", "Bad Pass", "Out of Bounds - Bad Pass Turnover",
		"Traveling", "Out of Bounds Lost Ball Turnover", "Shot Clock Turnover",
		"Step Out of Bounds Turnover", "Double Dribble", "Backcourt Turnover",
		"Offensive Goaltending", "Lane Violation", "3 Second Violation", "5 Second Violation",
		"Kicked Ball Violation", "Palming Turnover", "8 Second Violation", "Inbound Turnover",
		"Illegal Assist Turnover", "Jump Ball Violation", "Discontinue Dribble",
		"Illegal Screen Turnover", "Punched Ball Turnover", "Excess Timeout Turnover",
		"Basket from Below Turnover", "Swinging Elbows Turnover", "10 Second Violaton",
	}},
	{Timeout, []string{"Regular", "Coach Challenge"}},
	{Substitution, nil},
	{FreeThrow, []string{
		"Free Throw 1 of 1", "Free Throw 1 of 2", "Free Throw 2 of 2",
		"Free Throw 1 of 3", "Free Throw 2 of 3", "Free Throw 3 of 3",
		"Free Throw Technical", "Free Throw Flagrant 1 of 2", "Free Throw Flagrant 2 of 2",
		"Free Throw Flagrant 1 of 3", "Free Throw Flagrant 2 of 3", "Free Throw Flagrant 3 of 3",
		"Free Throw Flagrant 1 of 1", "Free Throw Clear Path 1 of 2",
		"Free Throw Clear Path 2 of 2", "Free Throw Technical 1 of 2",
		"Free Throw Technical 2 of 2",
	}},
	{InstantReplay, []string{
		"Support Ruling", "Overturn Ruling", "Ruling Stands",
		"Coach Challenge Support Ruling", "Coach Challenge Overturn Ruling",
		"Coach Challenge Ruling Stands", "Altercation Ruling", "Replay Center",
	}},
	{Violation, []string{
		"Lane", "Defensive Goaltending", "Kicked Ball", "Delay Of Game", "Double Lane", "Jump Ball",
	}},
	{Ejection, []string{"First Flagrant Type 2", "Second Flagrant Type 1", "Second Technical", "Other"}},
}

// aliases maps normalised spellings seen in feeds onto canonical types.
var aliases = map[string]ActionType{
	"instant reply": InstantReplay,
}

var (
	actionIndex  = map[string]ActionType{}
	subTypeIndex = map[ActionType]map[string]string{}
)

func init() {
	for _, entry := range subTypes {
		actionIndex[normalize(string(entry.action))] = entry.action
		idx := make(map[string]string, len(entry.subTypes))
		for _, st := range entry.subTypes {
			idx[normalize(st)] = st
		}
		subTypeIndex[entry.action] = idx
	}
	for alias, action := range aliases {
		actionIndex[alias] = action
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ParseActionType resolves a raw feed value to its ActionType.
func ParseActionType(raw string) (ActionType, error) {
	if action, ok := actionIndex[normalize(raw)]; ok {
		return action, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// Classify resolves a raw (action, subtype) pair. An empty subtype is always
// accepted.
func Classify(rawAction, rawSubType string) (Action, error) {
	action, err := ParseActionType(rawAction)
	if err != nil {
		return Action{}, err
	}

	key := normalize(rawSubType)
	if key == "" {
		return Action{Type: action}, nil
	}

	canonical, ok := subTypeIndex[action][key]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q for %s", ErrUnknownSubType, rawSubType, action)
	}
	return Action{Type: action, SubType: canonical}, nil
}

// ActionTypes lists every action type in declaration order.
func ActionTypes() []ActionType {
	out := make([]ActionType, 0, len(subTypes))
	for _, entry := range subTypes {
		out = append(out, entry.action)
	}
	return out
}

// SubTypes lists the known subtypes of a. The slice is a copy.
func SubTypes(a ActionType) []string {
	for _, entry := range subTypes {
		if entry.action == a {
			return append([]string{}, entry.subTypes...)
		}
	}
	return nil
}
