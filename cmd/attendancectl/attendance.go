package main

import (
	"os"

	"github.com/goliatone/go-attendance/backend"
	attendancecommand "github.com/goliatone/go-attendance/command"
	attendancequery "github.com/goliatone/go-attendance/query"
	"github.com/spf13/cobra"
)

const deviceKeyEnv = "ATTENDANCE_DEVICE_KEY"

func newAttendanceCommand(rt *cliRuntime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "List and record attendance",
	}

	var filter backend.AttendanceFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List attendance records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			msg := attendancequery.ListAttendanceMessage{Filter: filter}
			if err := msg.Validate(); err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			records, err := query[attendancequery.ListAttendanceMessage, []backend.AttendanceRecord](cmd.Context(), msg)
			if err != nil {
				return err
			}
			return out.print(records)
		},
	}
	list.Flags().StringVar(&filter.Date, "date", "", "Only records for this day (YYYY-MM-DD)")
	list.Flags().StringVar(&filter.CourseID, "course-id", "", "Only records for this course")
	cmd.AddCommand(list)

	var fingerprintID int
	record := &cobra.Command{
		Use:   "record",
		Short: "Record attendance for a fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			msg := attendancecommand.RecordAttendanceMessage{FingerprintID: fingerprintID}
			if err := msg.Validate(); err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			result, err := execute[attendancecommand.RecordAttendanceMessage, backend.RecordAttendanceResult](cmd.Context(), msg)
			if err != nil {
				return err
			}
			return out.print(result)
		},
	}
	record.Flags().IntVar(&fingerprintID, "fingerprint-id", 0, "Fingerprint sensor slot")
	cmd.AddCommand(record)
	cmd.AddCommand(newDeviceRecordCommand(rt))
	return cmd
}

// newDeviceRecordCommand records a scan with the device key, the way a
// fingerprint scanner does. No session is needed.
func newDeviceRecordCommand(rt *cliRuntime) *cobra.Command {
	var msg attendancecommand.RecordDeviceAttendanceMessage
	cmd := &cobra.Command{
		Use:   "device-record",
		Short: "Record attendance as a fingerprint device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			if msg.DeviceKey == "" {
				msg.DeviceKey = os.Getenv(deviceKeyEnv)
			}
			if err := msg.Validate(); err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			result, err := execute[attendancecommand.RecordDeviceAttendanceMessage, backend.RecordAttendanceResult](cmd.Context(), msg)
			if err != nil {
				return err
			}
			return out.print(result)
		},
	}
	cmd.Flags().IntVar(&msg.FingerprintID, "fingerprint-id", 0, "Fingerprint sensor slot")
	cmd.Flags().StringVar(&msg.DeviceKey, "device-key", "", "Device API key (defaults to $"+deviceKeyEnv+")")
	return cmd
}
