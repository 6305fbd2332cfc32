// Package config loads server tuning from the environment.
//
// Every setting has a default, so an empty environment yields a working
// server:
//
//	NIM_HEARTBEAT_INTERVAL  10s    time between liveness probes
//	NIM_HEARTBEAT_TIMEOUT   5s     how long a probe may go unanswered
//	NIM_AI_DELAY            1500ms AI thinking time
//	NIM_EASY_MIN/MAX        2/20   initial pool range for easy games
//	NIM_HARD_MIN/MAX        2/100  initial pool range for hard games
//	NIM_MAX_NAME_LENGTH     24     display name limit, in runes
//	NIM_MAX_CHAT_LENGTH     500    chat message limit, in runes
//	NIM_STATIC_DIR          ./static
//	NIM_RULES_FILE                 optional JSON file overriding the pool ranges
//
// A rules file has the same shape as the /api/rules response:
//
//	{"easy": {"min": 2, "max": 20}, "hard": {"min": 2, "max": 100}}
package config
