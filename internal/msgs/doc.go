// Package msgs defines the estimator message shapes carried on the bus.
//
// Payloads are JSON documents whose field names follow the familiar robotics
// message layouts (header.stamp.secs, pose.pose.orientation.w, ...), so a bridge
// can forward estimator output without renaming fields.
package msgs
