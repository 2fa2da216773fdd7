// Package socket provides the dMQ messaging patterns on top of base.Socket.
//
// Every socket type embeds *base.Socket, so Bind, Connect, Close, Address and
// Done are shared. A socket either binds or connects, and either way its
// peers are the established connections.
//
// Key Components:
//
//   - Pub / Sub: Pub fans every message out to all writable peers, nothing
//     is buffered for absent subscribers. Sub delivers messages whose first
//     frame (the topic) matches one of its subscriptions, or every message
//     while it has none. Subscriptions are glob patterns ("user:*") or
//     regular expressions.
//
//   - Push / Pull: Push distributes messages round-robin over its peers and
//     buffers them (bounded by the high water mark) while no peer is
//     writable. Pull only receives.
//
//   - Req / Rep: Req sends requests round-robin and correlates each reply
//     with its callback through a trailing id frame. Rep hands requests to a
//     handler together with a Reply to answer on the originating connection.
//
// Send methods validate the message synchronously and then queue it on the
// socket's control loop, they never block on the network. Events and reply
// callbacks run on the control loop.
package socket
