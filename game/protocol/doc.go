// Package protocol defines the JSON messages exchanged with lobby clients.
//
// Every message is a JSON object carrying an "event" discriminator that names
// the action. Inbound messages are decoded into the sealed Inbound union;
// messages without a discriminator or with a malformed payload are reported
// as errors so the caller can log and drop them. Unknown discriminators decode
// to Unknown and are meant to be ignored, which keeps older and newer clients
// compatible.
//
// Message Protocol:
//
//	client -> server
//	  {"event":"beat"}                                   heartbeat acknowledgment
//	  {"event":"lobby-join","username":"Alice"}
//	  {"event":"chat-message","message":"hi"}
//	  {"event":"game-create","difficulty":"easy","opponentType":"ai"}
//	  {"event":"game-join","id":3}
//	  {"event":"game-leave"}
//	  {"event":"play-turn","marbles":2}
//
//	server -> client
//	  {"event":"heartbeat"}
//	  {"event":"lobby-join","success":true}
//	  {"event":"chat-message","message":{"time":1700000000000,"from":"SYSTEM","message":"..."}}
//	  {"event":"game-create","success":true,"gameId":3}
//	  {"event":"game-join","success":false,"reason":"..."}
//	  {"event":"game-leave","success":true}
//	  {"event":"game-status-update","gameId":3,"player1":"Alice","player2":"Nobody","gameState":"in-lobby"}
//	  {"event":"game-status-update","gameId":3,"gameClosed":true}
//	  {"event":"game-start","marbles":17,"yourTurn":true}
//	  {"event":"game-update","marbles":12,"yourTurn":false}
//	  {"event":"play-turn","success":false,"reason":"..."}
//	  {"event":"game-over","win":true,"ai":false}
//	  {"event":"game-terminate"}
package protocol
